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
// DesignationStore
// ============================================================================

func (s *Store) CreateDesignation(ctx context.Context, d *model.Designation) error {
	return insertOne(ctx, s.col(ColDesignations), d)
}

func (s *Store) GetDesignation(ctx context.Context, id string) (*model.Designation, error) {
	d, err := findOne[model.Designation](ctx, s.col(ColDesignations), bson.D{{Key: "_id", Value: id}})
	if err != nil || d == nil {
		return d, err
	}
	if err := s.populateDesignations(ctx, []*model.Designation{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) GetDesignationByTitle(ctx context.Context, title string) (*model.Designation, error) {
	return findOne[model.Designation](ctx, s.col(ColDesignations), bson.D{{Key: "title", Value: title}})
}

func (s *Store) UpdateDesignation(ctx context.Context, d *model.Designation) error {
	return updateFields(ctx, s.col(ColDesignations), d.ID, bson.D{
		{Key: "title", Value: d.Title},
		{Key: "description", Value: d.Description},
		{Key: "level", Value: d.Level},
		{Key: "department", Value: d.DepartmentID},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SoftDeleteDesignation(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColDesignations), id, bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) ListDesignations(ctx context.Context, opts storage.ListOptions) ([]*model.Designation, int64, error) {
	filter := bson.D{activeOnly}
	if opts.Search != "" {
		filter = append(filter, searchOr(opts.Search, "title", "description"))
	}
	if dept := opts.Filter("department"); dept != "" {
		filter = append(filter, bson.E{Key: "department", Value: dept})
	}
	if level := opts.Filter("level"); level != "" {
		filter = append(filter, bson.E{Key: "level", Value: levelValue(level)})
	}

	list, err := findMany[model.Designation](ctx, s.col(ColDesignations), filter, findOptions(opts))
	if err != nil {
		return nil, 0, err
	}
	total, err := count(ctx, s.col(ColDesignations), filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.populateDesignations(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *Store) ListDesignationsByDepartment(ctx context.Context, departmentID string) ([]*model.DesignationRef, error) {
	filter := bson.D{activeOnly, {Key: "department", Value: departmentID}}
	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "title", Value: 1}})
	return findMany[model.DesignationRef](ctx, s.col(ColDesignations), filter, opts)
}

func (s *Store) ListActiveDesignations(ctx context.Context) ([]*model.Designation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "title", Value: 1}})
	list, err := findMany[model.Designation](ctx, s.col(ColDesignations), bson.D{activeOnly}, opts)
	if err != nil {
		return nil, err
	}
	if err := s.populateDesignations(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// populateDesignations 回填部门与创建者子集
func (s *Store) populateDesignations(ctx context.Context, list []*model.Designation) error {
	deptIDs := make([]string, 0, len(list))
	adminIDs := make([]string, 0, len(list))
	for _, d := range list {
		deptIDs = append(deptIDs, d.DepartmentID)
		adminIDs = append(adminIDs, d.CreatedByID)
	}
	depts, err := s.departmentRefs(ctx, deptIDs)
	if err != nil {
		return err
	}
	admins, err := s.adminRefs(ctx, adminIDs)
	if err != nil {
		return err
	}
	for _, d := range list {
		d.Department = depts[d.DepartmentID]
		d.CreatedBy = admins[d.CreatedByID]
	}
	return nil
}

// levelValue 级别过滤值按数字匹配，非数字原样透传（不会命中任何文档）
func levelValue(raw string) interface{} {
	var n int
	for _, c := range raw {
		if c < '0' || c > '9' {
			return raw
		}
		n = n*10 + int(c-'0')
	}
	return n
}
