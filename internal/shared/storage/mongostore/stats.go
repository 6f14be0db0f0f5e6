package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// ============================================================================
// StatsStore - 仪表盘聚合
//
// 所有统计即时计算，不做缓存；调用方（dashboard handler）自行决定刷新频率。
// ============================================================================

// groupCount 按单一字段分组计数，计数降序；match 过滤进入分组的文档
func groupCount(ctx context.Context, col *mongo.Collection, field string, match bson.D) ([]storage.CountBucket, error) {
	return aggregate[storage.CountBucket](ctx, col, mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	})
}

// monthBuckets 按 created_at 自然月分桶计数，起始时间之后，按年月升序；
// match 追加在时间窗过滤之上
func monthBuckets(ctx context.Context, col *mongo.Collection, since time.Time, match bson.D) ([]storage.MonthBucket, error) {
	type rawBucket struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	filter := bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}}
	filter = append(filter, match...)
	raw, err := aggregate[rawBucket](ctx, col, mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "year", Value: bson.D{{Key: "$year", Value: "$created_at"}}},
				{Key: "month", Value: bson.D{{Key: "$month", Value: "$created_at"}}},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]storage.MonthBucket, 0, len(raw))
	for _, b := range raw {
		out = append(out, storage.MonthBucket{Year: b.ID.Year, Month: b.ID.Month, Count: b.Count})
	}
	return out, nil
}

// DashboardOverview 各实体总量 + 近期增量 + 待处理联系 + 近 24 小时登录
func (s *Store) DashboardOverview(ctx context.Context) (*storage.DashboardOverview, error) {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	dayAgo := now.Add(-24 * time.Hour)

	// 软删除实体的近期增量同样只数激活记录；联系记录没有 is_active
	recentWindow := bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: weekAgo}}}
	recentActive := bson.D{activeOnly, recentWindow}
	recentAny := bson.D{recentWindow}

	o := &storage.DashboardOverview{}
	counts := []struct {
		dst    *int64
		col    string
		filter bson.D
	}{
		{&o.TotalAdmins, ColAdmins, bson.D{activeOnly}},
		{&o.TotalProducts, ColProducts, bson.D{activeOnly}},
		{&o.TotalContacts, ColContacts, bson.D{}},
		{&o.TotalEmployees, ColIdCards, bson.D{activeOnly}},
		{&o.TotalDepartments, ColDepartments, bson.D{activeOnly}},
		{&o.TotalDesignations, ColDesignations, bson.D{activeOnly}},
		{&o.RecentProducts, ColProducts, recentActive},
		{&o.RecentContacts, ColContacts, recentAny},
		{&o.RecentEmployees, ColIdCards, recentActive},
		{&o.RecentDepartments, ColDepartments, recentActive},
		{&o.RecentDesignations, ColDesignations, recentActive},
		{&o.PendingContacts, ColContacts, bson.D{{Key: "status", Value: model.ContactNew}}},
		{&o.RecentLogins, ColAdmins, bson.D{{Key: "last_login", Value: bson.D{{Key: "$gte", Value: dayAgo}}}}},
	}
	for _, c := range counts {
		n, err := count(ctx, s.col(c.col), c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return o, nil
}

// DashboardCharts 近 12 个月趋势 + 分布图
func (s *Store) DashboardCharts(ctx context.Context) (*storage.DashboardCharts, error) {
	since := time.Now().AddDate(0, -12, 0)

	products, err := monthBuckets(ctx, s.col(ColProducts), since, bson.D{activeOnly})
	if err != nil {
		return nil, err
	}
	contacts, err := monthBuckets(ctx, s.col(ColContacts), since, bson.D{})
	if err != nil {
		return nil, err
	}
	employees, err := monthBuckets(ctx, s.col(ColIdCards), since, bson.D{activeOnly})
	if err != nil {
		return nil, err
	}

	contactStatus, err := groupCount(ctx, s.col(ColContacts), "$status", bson.D{})
	if err != nil {
		return nil, err
	}
	employeeType, err := groupCount(ctx, s.col(ColIdCards), "$employee_type", bson.D{activeOnly})
	if err != nil {
		return nil, err
	}

	deptDist, err := s.refDistribution(ctx, ColIdCards, "$department", ColDepartments, "$ref.name")
	if err != nil {
		return nil, err
	}
	desigDist, err := s.refDistribution(ctx, ColIdCards, "$designation", ColDesignations, "$ref.title")
	if err != nil {
		return nil, err
	}

	return &storage.DashboardCharts{
		ProductsByMonth:           products,
		ContactsByMonth:           contacts,
		EmployeesByMonth:          employees,
		ContactStatusDistribution: contactStatus,
		EmployeeTypeDistribution:  employeeType,
		DepartmentDistribution:    deptDist,
		DesignationDistribution:   desigDist,
	}, nil
}

// refDistribution 员工证按关联实体分组计数，$lookup 取显示名，top 10
func (s *Store) refDistribution(ctx context.Context, col, groupField, lookupCol, nameField string) ([]storage.CountBucket, error) {
	return aggregate[storage.CountBucket](ctx, s.col(col), mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{activeOnly}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: groupField},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: lookupCol},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "ref"},
		}}},
		bson.D{{Key: "$unwind", Value: "$ref"}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: nameField},
			{Key: "count", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 10}},
	})
}

// RecentActivity 各实体最近 limit 条 + 最近登录的管理员
func (s *Store) RecentActivity(ctx context.Context, limit int64) (*storage.RecentActivity, error) {
	if limit <= 0 {
		limit = 5
	}
	newest := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	products, err := findMany[model.Product](ctx, s.col(ColProducts), bson.D{activeOnly}, newest)
	if err != nil {
		return nil, err
	}
	contacts, err := findMany[model.Contact](ctx, s.col(ColContacts), bson.D{}, newest)
	if err != nil {
		return nil, err
	}
	employees, err := findMany[model.IdCard](ctx, s.col(ColIdCards), bson.D{activeOnly}, newest)
	if err != nil {
		return nil, err
	}
	if err := s.populateIdCards(ctx, employees); err != nil {
		return nil, err
	}
	departments, err := findMany[model.Department](ctx, s.col(ColDepartments), bson.D{activeOnly}, newest)
	if err != nil {
		return nil, err
	}
	designations, err := findMany[model.Designation](ctx, s.col(ColDesignations), bson.D{activeOnly}, newest)
	if err != nil {
		return nil, err
	}
	if err := s.populateDesignations(ctx, designations); err != nil {
		return nil, err
	}

	loginOpts := options.Find().
		SetSort(bson.D{{Key: "last_login", Value: -1}}).
		SetLimit(limit)
	logins, err := findMany[storage.AdminLogin](ctx, s.col(ColAdmins), bson.D{
		{Key: "last_login", Value: bson.D{{Key: "$ne", Value: nil}}},
	}, loginOpts)
	if err != nil {
		return nil, err
	}

	return &storage.RecentActivity{
		RecentProducts:     products,
		RecentContacts:     contacts,
		RecentEmployees:    employees,
		RecentDepartments:  departments,
		RecentDesignations: designations,
		RecentLogins:       logins,
	}, nil
}

// CollectionCounts 各集合文档总数（system-health 用）
func (s *Store) CollectionCounts(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, col := range []string{ColAdmins, ColDepartments, ColDesignations, ColIdCards, ColProducts, ColContacts} {
		n, err := count(ctx, s.col(col), bson.D{})
		if err != nil {
			return nil, err
		}
		out[col] = n
	}
	return out, nil
}

// QuickStats 今日 / 本周（周日为一周起点）/ 本月新增数
func (s *Store) QuickStats(ctx context.Context, now time.Time) (*storage.QuickStats, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today, err := s.periodCounts(ctx, dayStart)
	if err != nil {
		return nil, err
	}
	week, err := s.periodCounts(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	month, err := s.periodCounts(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	return &storage.QuickStats{Today: *today, ThisWeek: *week, ThisMonth: *month}, nil
}

func (s *Store) periodCounts(ctx context.Context, since time.Time) (*storage.PeriodCounts, error) {
	window := bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}
	sinceActive := bson.D{activeOnly, window}
	sinceAny := bson.D{window}

	p := &storage.PeriodCounts{}
	counts := []struct {
		dst    *int64
		col    string
		filter bson.D
	}{
		{&p.Products, ColProducts, sinceActive},
		{&p.Contacts, ColContacts, sinceAny},
		{&p.Employees, ColIdCards, sinceActive},
		{&p.Departments, ColDepartments, sinceActive},
		{&p.Designations, ColDesignations, sinceActive},
	}
	for _, c := range counts {
		n, err := count(ctx, s.col(c.col), c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return p, nil
}
