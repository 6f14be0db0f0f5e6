package model

import "time"

// 职级范围
const (
	DesignationMinLevel = 1
	DesignationMaxLevel = 20
)

// Designation 职位
//
// title 唯一；level 取值 1-20；必须引用一个写入时处于激活状态的部门。
type Designation struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Level        int       `json:"level" bson:"level"`
	DepartmentID string    `json:"-" bson:"department"`
	IsActive     bool      `json:"isActive" bson:"is_active"`
	CreatedByID  string    `json:"-" bson:"created_by"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`

	// populate 填充，不落库
	Department *DepartmentRef `json:"department,omitempty" bson:"-"`
	CreatedBy  *AdminRef      `json:"createdBy,omitempty" bson:"-"`
}

// DesignationRef 关联职位的白名单子集
type DesignationRef struct {
	ID    string `json:"id" bson:"_id"`
	Title string `json:"title" bson:"title"`
	Level int    `json:"level" bson:"level"`
}
