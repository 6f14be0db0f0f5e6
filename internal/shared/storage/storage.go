// Package storage 定义持久层契约
//
// 约定（与 mongostore 实现保持一致）：
//   - Get* 记录不存在时返回 (nil, nil)
//   - 唯一索引冲突映射为 ErrDuplicate（预检查只是延迟优化，索引才是正确性保证）
//   - Update*/Delete* 目标不存在时返回 ErrNotFound
package storage

import (
	"context"
	"errors"
	"time"

	"company-admin/internal/shared/model"
)

// 领域错误
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store 持久层统一接口
type Store interface {
	AdminStore
	DepartmentStore
	DesignationStore
	IdCardStore
	ProductStore
	ContactStore
	StatsStore

	Ping(ctx context.Context) error
	Close() error
}

// AdminStore 管理员账号存取
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	UpdateAdminProfile(ctx context.Context, id, fullName, email string) error
	UpdateAdminPassword(ctx context.Context, id, passwordHash string) error
	UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error
}

// DepartmentStore 部门存取
type DepartmentStore interface {
	CreateDepartment(ctx context.Context, dept *model.Department) error
	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	GetDepartmentByName(ctx context.Context, name string) (*model.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (*model.Department, error)
	UpdateDepartment(ctx context.Context, dept *model.Department) error
	SoftDeleteDepartment(ctx context.Context, id string) error
	ListDepartments(ctx context.Context, opts ListOptions) ([]*model.Department, int64, error)
	ListActiveDepartments(ctx context.Context) ([]*model.DepartmentRef, error)
}

// DesignationStore 职位存取
type DesignationStore interface {
	CreateDesignation(ctx context.Context, d *model.Designation) error
	GetDesignation(ctx context.Context, id string) (*model.Designation, error)
	GetDesignationByTitle(ctx context.Context, title string) (*model.Designation, error)
	UpdateDesignation(ctx context.Context, d *model.Designation) error
	SoftDeleteDesignation(ctx context.Context, id string) error
	ListDesignations(ctx context.Context, opts ListOptions) ([]*model.Designation, int64, error)
	ListDesignationsByDepartment(ctx context.Context, departmentID string) ([]*model.DesignationRef, error)
	ListActiveDesignations(ctx context.Context) ([]*model.Designation, error)
}

// IdCardStore 员工证存取
type IdCardStore interface {
	CreateIdCard(ctx context.Context, card *model.IdCard) error
	GetIdCard(ctx context.Context, id string) (*model.IdCard, error)
	GetIdCardByNumber(ctx context.Context, idCardNumber string) (*model.IdCard, error)
	GetIdCardByEmail(ctx context.Context, email string) (*model.IdCard, error)
	UpdateIdCard(ctx context.Context, card *model.IdCard) error
	SoftDeleteIdCard(ctx context.Context, id string) error
	ListIdCards(ctx context.Context, opts ListOptions) ([]*model.IdCard, int64, error)
	IdCardStats(ctx context.Context) (*IdCardStats, error)
}

// ProductStore 产品存取
type ProductStore interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	SoftDeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, opts ListOptions) ([]*model.Product, int64, error)
	ListProductCategories(ctx context.Context) ([]string, error)
}

// ContactStore 联系表单存取
type ContactStore interface {
	CreateContact(ctx context.Context, c *model.Contact) error
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	UpdateContactStatus(ctx context.Context, id string, status model.ContactStatus) error
	DeleteContact(ctx context.Context, id string) error
	ListContacts(ctx context.Context, opts ListOptions) ([]*model.Contact, int64, error)
	ContactStats(ctx context.Context) (*ContactStats, error)
}

// StatsStore 仪表盘聚合（只读，无缓存，每次调用即时计算）
type StatsStore interface {
	DashboardOverview(ctx context.Context) (*DashboardOverview, error)
	DashboardCharts(ctx context.Context) (*DashboardCharts, error)
	RecentActivity(ctx context.Context, limit int64) (*RecentActivity, error)
	CollectionCounts(ctx context.Context) (map[string]int64, error)
	QuickStats(ctx context.Context, now time.Time) (*QuickStats, error)
}
