package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"company-admin/internal/shared/model"
)

// populate：关联文档以白名单子集回填（创建者只暴露 fullName，部门只暴露
// name+code，职位只暴露 title+level）。批量查询避免每行一次往返。

func inFilter(ids []string) bson.D {
	return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// adminRefs 批量获取创建者子集
func (s *Store) adminRefs(ctx context.Context, ids []string) (map[string]*model.AdminRef, error) {
	ids = dedup(ids)
	if len(ids) == 0 {
		return map[string]*model.AdminRef{}, nil
	}
	refs, err := findMany[model.AdminRef](ctx, s.col(ColAdmins), inFilter(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.AdminRef, len(refs))
	for _, r := range refs {
		out[r.ID] = r
	}
	return out, nil
}

// departmentRefs 批量获取部门子集
func (s *Store) departmentRefs(ctx context.Context, ids []string) (map[string]*model.DepartmentRef, error) {
	ids = dedup(ids)
	if len(ids) == 0 {
		return map[string]*model.DepartmentRef{}, nil
	}
	refs, err := findMany[model.DepartmentRef](ctx, s.col(ColDepartments), inFilter(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.DepartmentRef, len(refs))
	for _, r := range refs {
		out[r.ID] = r
	}
	return out, nil
}

// designationRefs 批量获取职位子集
func (s *Store) designationRefs(ctx context.Context, ids []string) (map[string]*model.DesignationRef, error) {
	ids = dedup(ids)
	if len(ids) == 0 {
		return map[string]*model.DesignationRef{}, nil
	}
	refs, err := findMany[model.DesignationRef](ctx, s.col(ColDesignations), inFilter(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.DesignationRef, len(refs))
	for _, r := range refs {
		out[r.ID] = r
	}
	return out, nil
}
