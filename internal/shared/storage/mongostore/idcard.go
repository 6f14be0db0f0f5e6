package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// ============================================================================
// IdCardStore
// ============================================================================

func (s *Store) CreateIdCard(ctx context.Context, card *model.IdCard) error {
	return insertOne(ctx, s.col(ColIdCards), card)
}

func (s *Store) GetIdCard(ctx context.Context, id string) (*model.IdCard, error) {
	card, err := findOne[model.IdCard](ctx, s.col(ColIdCards), bson.D{{Key: "_id", Value: id}})
	if err != nil || card == nil {
		return card, err
	}
	if err := s.populateIdCards(ctx, []*model.IdCard{card}); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Store) GetIdCardByNumber(ctx context.Context, idCardNumber string) (*model.IdCard, error) {
	card, err := findOne[model.IdCard](ctx, s.col(ColIdCards), bson.D{{Key: "id_card_number", Value: idCardNumber}})
	if err != nil || card == nil {
		return card, err
	}
	if err := s.populateIdCards(ctx, []*model.IdCard{card}); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Store) GetIdCardByEmail(ctx context.Context, email string) (*model.IdCard, error) {
	return findOne[model.IdCard](ctx, s.col(ColIdCards), bson.D{{Key: "email", Value: email}})
}

func (s *Store) UpdateIdCard(ctx context.Context, card *model.IdCard) error {
	return updateFields(ctx, s.col(ColIdCards), card.ID, bson.D{
		{Key: "employee_type", Value: card.EmployeeType},
		{Key: "full_name", Value: card.FullName},
		{Key: "employee_picture", Value: card.EmployeePicture},
		{Key: "address", Value: card.Address},
		{Key: "blood_group", Value: card.BloodGroup},
		{Key: "mobile_number", Value: card.MobileNumber},
		{Key: "email", Value: card.Email},
		{Key: "date_of_birth", Value: card.DateOfBirth},
		{Key: "date_of_joining", Value: card.DateOfJoining},
		{Key: "department", Value: card.DepartmentID},
		{Key: "designation", Value: card.DesignationID},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SoftDeleteIdCard(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColIdCards), id, bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) ListIdCards(ctx context.Context, opts storage.ListOptions) ([]*model.IdCard, int64, error) {
	filter := bson.D{activeOnly}
	if opts.Search != "" {
		filter = append(filter, searchOr(opts.Search, "full_name", "email", "id_card_number", "mobile_number"))
	}
	if t := opts.Filter("employeeType"); t != "" {
		filter = append(filter, bson.E{Key: "employee_type", Value: t})
	}
	if dept := opts.Filter("department"); dept != "" {
		filter = append(filter, bson.E{Key: "department", Value: dept})
	}
	if desig := opts.Filter("designation"); desig != "" {
		filter = append(filter, bson.E{Key: "designation", Value: desig})
	}
	if bg := opts.Filter("bloodGroup"); bg != "" {
		filter = append(filter, bson.E{Key: "blood_group", Value: bg})
	}

	cards, err := findMany[model.IdCard](ctx, s.col(ColIdCards), filter, findOptions(opts))
	if err != nil {
		return nil, 0, err
	}
	total, err := count(ctx, s.col(ColIdCards), filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.populateIdCards(ctx, cards); err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// IdCardStats 员工证统计（类型/部门/血型分布 + 近 30 天入职）
func (s *Store) IdCardStats(ctx context.Context) (*storage.IdCardStats, error) {
	col := s.col(ColIdCards)

	// 原系统的“总数”同样只数激活证件
	total, err := count(ctx, col, bson.D{activeOnly})
	if err != nil {
		return nil, err
	}
	active, err := count(ctx, col, bson.D{activeOnly})
	if err != nil {
		return nil, err
	}
	recentHires, err := count(ctx, col, bson.D{
		activeOnly,
		{Key: "date_of_joining", Value: bson.D{{Key: "$gte", Value: time.Now().AddDate(0, 0, -30)}}},
	})
	if err != nil {
		return nil, err
	}

	typeStats, err := groupCount(ctx, col, "$employee_type", bson.D{activeOnly})
	if err != nil {
		return nil, err
	}
	bloodStats, err := groupCount(ctx, col, "$blood_group", bson.D{activeOnly})
	if err != nil {
		return nil, err
	}

	// 部门分布走 $lookup 展示部门名而非裸 ID
	deptStats, err := aggregate[storage.CountBucket](ctx, col, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{activeOnly}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$department"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ColDepartments},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "dept"},
		}}},
		bson.D{{Key: "$unwind", Value: "$dept"}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: "$dept.name"},
			{Key: "count", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	})
	if err != nil {
		return nil, err
	}

	return &storage.IdCardStats{
		Total:             total,
		ActiveEmployees:   active,
		EmployeeTypeStats: typeStats,
		DepartmentStats:   deptStats,
		BloodGroupStats:   bloodStats,
		RecentHires:       recentHires,
	}, nil
}

// populateIdCards 回填部门 / 职位 / 创建者子集
func (s *Store) populateIdCards(ctx context.Context, cards []*model.IdCard) error {
	deptIDs := make([]string, 0, len(cards))
	desigIDs := make([]string, 0, len(cards))
	adminIDs := make([]string, 0, len(cards))
	for _, c := range cards {
		deptIDs = append(deptIDs, c.DepartmentID)
		desigIDs = append(desigIDs, c.DesignationID)
		adminIDs = append(adminIDs, c.CreatedByID)
	}
	depts, err := s.departmentRefs(ctx, deptIDs)
	if err != nil {
		return err
	}
	desigs, err := s.designationRefs(ctx, desigIDs)
	if err != nil {
		return err
	}
	admins, err := s.adminRefs(ctx, adminIDs)
	if err != nil {
		return err
	}
	for _, c := range cards {
		c.Department = depts[c.DepartmentID]
		c.Designation = desigs[c.DesignationID]
		c.CreatedBy = admins[c.CreatedByID]
	}
	return nil
}
