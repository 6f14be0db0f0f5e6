package model

import "time"

// ContactStatus 联系表单处理状态
type ContactStatus string

const (
	ContactNew     ContactStatus = "new"
	ContactRead    ContactStatus = "read"
	ContactReplied ContactStatus = "replied"
	ContactClosed  ContactStatus = "closed"
)

// ContactStatuses 全部合法状态
var ContactStatuses = []ContactStatus{ContactNew, ContactRead, ContactReplied, ContactClosed}

// Valid 状态是否合法
func (s ContactStatus) Valid() bool {
	for _, v := range ContactStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Contact 公开联系表单提交
//
// 唯一支持物理删除的实体；无 isActive 标记。
type Contact struct {
	ID           string        `json:"id" bson:"_id"`
	FullName     string        `json:"fullName" bson:"full_name"`
	EmailAddress string        `json:"emailAddress" bson:"email_address"`
	MobileNumber string        `json:"mobileNumber" bson:"mobile_number"`
	Subject      string        `json:"subject" bson:"subject"`
	Message      string        `json:"message" bson:"message"`
	Status       ContactStatus `json:"status" bson:"status"` // 默认 new
	IPAddress    string        `json:"ipAddress,omitempty" bson:"ip_address,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty" bson:"user_agent,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updated_at"`
}
