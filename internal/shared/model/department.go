package model

import "time"

// Department 部门
//
// name 与 code 均唯一；code 存储前统一大写。
// 被 Designation 和 IdCard 引用，引用仅在写入时校验有效性。
type Department struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Code        string    `json:"code" bson:"code"` // 大写唯一编码
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	IsActive    bool      `json:"isActive" bson:"is_active"`
	CreatedByID string    `json:"-" bson:"created_by"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`

	// populate 填充，不落库
	CreatedBy *AdminRef `json:"createdBy,omitempty" bson:"-"`
}

// DepartmentRef 关联部门的白名单子集
type DepartmentRef struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
	Code string `json:"code" bson:"code"`
}
