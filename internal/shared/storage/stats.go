package storage

import (
	"time"

	"company-admin/internal/shared/model"
)

// CountBucket 分组计数（按状态/类型/名称）
type CountBucket struct {
	Key   string `json:"key" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// MonthBucket 按自然月分桶的计数
type MonthBucket struct {
	Year  int   `json:"year" bson:"year"`
	Month int   `json:"month" bson:"month"`
	Count int64 `json:"count" bson:"count"`
}

// ContactStats 联系表单统计
type ContactStats struct {
	Total           int64                         `json:"totalContacts"`
	StatusBreakdown map[model.ContactStatus]int64 `json:"statusBreakdown"`
	MonthlyStats    []MonthBucket                 `json:"monthlyStats"` // 近 6 个月
}

// IdCardStats 员工证统计
type IdCardStats struct {
	Total             int64         `json:"totalIdCards"`
	ActiveEmployees   int64         `json:"activeEmployees"`
	EmployeeTypeStats []CountBucket `json:"employeeTypeStats"`
	DepartmentStats   []CountBucket `json:"departmentStats"` // 按部门名，计数降序
	BloodGroupStats   []CountBucket `json:"bloodGroupStats"`
	RecentHires       int64         `json:"recentHires"` // 入职日期落在近 30 天
}

// DashboardOverview 仪表盘总览
type DashboardOverview struct {
	TotalAdmins        int64 `json:"totalAdmins"`
	TotalProducts      int64 `json:"totalProducts"`
	TotalContacts      int64 `json:"totalContacts"`
	TotalEmployees     int64 `json:"totalEmployees"`
	TotalDepartments   int64 `json:"totalDepartments"`
	TotalDesignations  int64 `json:"totalDesignations"`
	RecentProducts     int64 `json:"recentProducts"` // 近 7 天
	RecentContacts     int64 `json:"recentContacts"`
	RecentEmployees    int64 `json:"recentEmployees"`
	RecentDepartments  int64 `json:"recentDepartments"`
	RecentDesignations int64 `json:"recentDesignations"`
	PendingContacts    int64 `json:"pendingContacts"` // status=new
	RecentLogins       int64 `json:"recentLogins"`    // 近 24 小时
}

// DashboardCharts 仪表盘图表数据（近 12 个月）
type DashboardCharts struct {
	ProductsByMonth           []MonthBucket `json:"productsByMonth"`
	ContactsByMonth           []MonthBucket `json:"contactsByMonth"`
	EmployeesByMonth          []MonthBucket `json:"employeesByMonth"`
	ContactStatusDistribution []CountBucket `json:"contactStatusDistribution"`
	EmployeeTypeDistribution  []CountBucket `json:"employeeTypeDistribution"`
	DepartmentDistribution    []CountBucket `json:"departmentDistribution"`  // top 10
	DesignationDistribution   []CountBucket `json:"designationDistribution"` // top 10
}

// AdminLogin 最近登录条目
type AdminLogin struct {
	ID        string     `json:"id" bson:"_id"`
	FullName  string     `json:"fullName" bson:"full_name"`
	Email     string     `json:"email" bson:"email"`
	LastLogin *time.Time `json:"lastLogin" bson:"last_login"`
}

// RecentActivity 最近动态
type RecentActivity struct {
	RecentProducts     []*model.Product     `json:"recentProducts"`
	RecentContacts     []*model.Contact     `json:"recentContacts"`
	RecentEmployees    []*model.IdCard      `json:"recentEmployees"`
	RecentDepartments  []*model.Department  `json:"recentDepartments"`
	RecentDesignations []*model.Designation `json:"recentDesignations"`
	RecentLogins       []*AdminLogin        `json:"recentLogins"`
}

// PeriodCounts 一个时间窗口内各实体的新增数
type PeriodCounts struct {
	Products     int64 `json:"products"`
	Contacts     int64 `json:"contacts"`
	Employees    int64 `json:"employees"`
	Departments  int64 `json:"departments"`
	Designations int64 `json:"designations"`
}

// QuickStats 今日 / 本周（周日起始）/ 本月快捷统计
type QuickStats struct {
	Today     PeriodCounts `json:"today"`
	ThisWeek  PeriodCounts `json:"thisWeek"`
	ThisMonth PeriodCounts `json:"thisMonth"`
}
