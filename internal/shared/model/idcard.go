package model

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ============================================================================
// EmployeeType - 雇员类型
// ============================================================================

// EmployeeType 雇员类型
type EmployeeType string

const (
	EmployeeFullTime  EmployeeType = "full-time"
	EmployeePartTime  EmployeeType = "part-time"
	EmployeeContract  EmployeeType = "contract"
	EmployeeIntern    EmployeeType = "intern"
	EmployeeTemporary EmployeeType = "temporary"
)

// EmployeeTypes 全部合法雇员类型
var EmployeeTypes = []EmployeeType{
	EmployeeFullTime, EmployeePartTime, EmployeeContract, EmployeeIntern, EmployeeTemporary,
}

// Valid 雇员类型是否合法
func (t EmployeeType) Valid() bool {
	for _, v := range EmployeeTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ============================================================================
// BloodGroup - 血型
// ============================================================================

// BloodGroup 血型
type BloodGroup string

// BloodGroups 全部合法血型
var BloodGroups = []BloodGroup{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Valid 血型是否合法
func (b BloodGroup) Valid() bool {
	for _, v := range BloodGroups {
		if b == v {
			return true
		}
	}
	return false
}

// ============================================================================
// IdCard - 员工证
// ============================================================================

// Address 结构化地址
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zip_code"`
	Country string `json:"country" bson:"country"` // 默认 India
}

// IdCard 员工证
//
// idCardNumber 与 email 均唯一；department / designation 必须在写入时
// 指向激活记录，后续失活不回溯作废既有引用。
type IdCard struct {
	ID              string       `json:"id" bson:"_id"`
	IdCardNumber    string       `json:"idCardNumber" bson:"id_card_number"`
	EmployeeType    EmployeeType `json:"employeeType" bson:"employee_type"`
	FullName        string       `json:"fullName" bson:"full_name"`
	EmployeePicture string       `json:"employeePicture" bson:"employee_picture"`
	Address         Address      `json:"address" bson:"address"`
	BloodGroup      BloodGroup   `json:"bloodGroup" bson:"blood_group"`
	MobileNumber    string       `json:"mobileNumber" bson:"mobile_number"`
	Email           string       `json:"email" bson:"email"`
	DateOfBirth     time.Time    `json:"dateOfBirth" bson:"date_of_birth"`
	DateOfJoining   time.Time    `json:"dateOfJoining" bson:"date_of_joining"`
	DepartmentID    string       `json:"-" bson:"department"`
	DesignationID   string       `json:"-" bson:"designation"`
	IsActive        bool         `json:"isActive" bson:"is_active"`
	CreatedByID     string       `json:"-" bson:"created_by"`
	CreatedAt       time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updated_at"`

	// populate 填充，不落库
	Department  *DepartmentRef  `json:"department,omitempty" bson:"-"`
	Designation *DesignationRef `json:"designation,omitempty" bson:"-"`
	CreatedBy   *AdminRef       `json:"createdBy,omitempty" bson:"-"`
}

// NewIdCardNumber 生成员工证号：EMP + 毫秒时间戳后 8 位 + 4 位随机数
//
// 碰撞概率极低，唯一索引作为最终兜底。
func NewIdCardNumber(now time.Time) string {
	ts := fmt.Sprintf("%d", now.UnixMilli())
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	return fmt.Sprintf("EMP%s%04d", ts, rand.Intn(10000))
}

// NormalizeIdCardNumber 查询前统一大写
func NormalizeIdCardNumber(n string) string {
	return strings.ToUpper(strings.TrimSpace(n))
}
