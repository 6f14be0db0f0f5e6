// Package model 定义核心数据模型
//
// 所有实体使用 json + bson 双 tag：json 面向 API 响应，bson 面向 MongoDB 存储。
// 枚举字段使用类型化字符串常量，避免自由字符串造成非法状态。
package model

import "time"

// AdminRole 管理员角色
type AdminRole string

const (
	// RoleAdmin 普通管理员：只能修改自己创建的资源
	RoleAdmin AdminRole = "admin"

	// RoleSuperAdmin 超级管理员：可修改任意资源
	RoleSuperAdmin AdminRole = "super_admin"
)

// Valid 角色是否合法
func (r AdminRole) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Admin 管理员账号
type Admin struct {
	ID           string     `json:"id" bson:"_id"`
	FullName     string     `json:"fullName" bson:"full_name"`
	Email        string     `json:"email" bson:"email"` // 唯一，存储前统一小写
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         AdminRole  `json:"role" bson:"role"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

// CanMutate 资源归属判定：创建者本人或超级管理员可修改/删除
func (a *Admin) CanMutate(creatorID string) bool {
	return a.ID == creatorID || a.Role == RoleSuperAdmin
}

// AdminRef 关联管理员的白名单子集（populate createdBy 用）
type AdminRef struct {
	ID       string `json:"id" bson:"_id"`
	FullName string `json:"fullName" bson:"full_name"`
}
