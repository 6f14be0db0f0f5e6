package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// ============================================================================
// DepartmentStore
// ============================================================================

func (s *Store) CreateDepartment(ctx context.Context, dept *model.Department) error {
	return insertOne(ctx, s.col(ColDepartments), dept)
}

func (s *Store) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	dept, err := findOne[model.Department](ctx, s.col(ColDepartments), bson.D{{Key: "_id", Value: id}})
	if err != nil || dept == nil {
		return dept, err
	}
	if err := s.populateDepartments(ctx, []*model.Department{dept}); err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *Store) GetDepartmentByName(ctx context.Context, name string) (*model.Department, error) {
	return findOne[model.Department](ctx, s.col(ColDepartments), bson.D{{Key: "name", Value: name}})
}

func (s *Store) GetDepartmentByCode(ctx context.Context, code string) (*model.Department, error) {
	return findOne[model.Department](ctx, s.col(ColDepartments), bson.D{{Key: "code", Value: code}})
}

func (s *Store) UpdateDepartment(ctx context.Context, dept *model.Department) error {
	return updateFields(ctx, s.col(ColDepartments), dept.ID, bson.D{
		{Key: "name", Value: dept.Name},
		{Key: "code", Value: dept.Code},
		{Key: "description", Value: dept.Description},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SoftDeleteDepartment(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColDepartments), id, bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) ListDepartments(ctx context.Context, opts storage.ListOptions) ([]*model.Department, int64, error) {
	filter := bson.D{activeOnly}
	if opts.Search != "" {
		filter = append(filter, searchOr(opts.Search, "name", "code", "description"))
	}

	depts, err := findMany[model.Department](ctx, s.col(ColDepartments), filter, findOptions(opts))
	if err != nil {
		return nil, 0, err
	}
	total, err := count(ctx, s.col(ColDepartments), filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.populateDepartments(ctx, depts); err != nil {
		return nil, 0, err
	}
	return depts, total, nil
}

func (s *Store) ListActiveDepartments(ctx context.Context) ([]*model.DepartmentRef, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findMany[model.DepartmentRef](ctx, s.col(ColDepartments), bson.D{activeOnly}, opts)
}

// populateDepartments 回填创建者子集
func (s *Store) populateDepartments(ctx context.Context, depts []*model.Department) error {
	ids := make([]string, 0, len(depts))
	for _, d := range depts {
		ids = append(ids, d.CreatedByID)
	}
	admins, err := s.adminRefs(ctx, ids)
	if err != nil {
		return err
	}
	for _, d := range depts {
		d.CreatedBy = admins[d.CreatedByID]
	}
	return nil
}
