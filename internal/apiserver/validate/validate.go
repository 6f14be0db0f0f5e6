// Package validate 请求字段校验
//
// Errors 收集器积累所有字段错误后一次性返回，客户端能在单次请求里
// 看到全部问题而不是逐个试错。
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe = regexp.MustCompile(`^[+]?[\d\s\-()]{10,15}$`)
)

// Errors 字段错误收集器
type Errors []string

// Ok 无错误
func (e Errors) Ok() bool {
	return len(e) == 0
}

// Message 第一条违规信息，作为响应顶层 message；完整列表仍随 errors 返回
func (e Errors) Message() string {
	if len(e) == 0 {
		return ""
	}
	return e[0]
}

// Add 追加一条错误
func (e *Errors) Add(format string, args ...interface{}) {
	*e = append(*e, fmt.Sprintf(format, args...))
}

// Required 非空字符串
func (e *Errors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add("%s is required", field)
		return false
	}
	return true
}

// Length 长度区间（按字符数，空值跳过，由 Required 负责）
func (e *Errors) Length(field, value string, min, max int) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		e.Add("%s must be between %d and %d characters", field, min, max)
	}
}

// Email 邮箱格式（空值跳过）
func (e *Errors) Email(field, value string) {
	if value = strings.TrimSpace(value); value == "" {
		return
	}
	if !emailRe.MatchString(value) {
		e.Add("%s must be a valid email address", field)
	}
}

// Mobile 手机号格式：可选 + 前缀，10-15 位数字/空格/连字符/括号
func (e *Errors) Mobile(field, value string) {
	if value = strings.TrimSpace(value); value == "" {
		return
	}
	if !mobileRe.MatchString(value) {
		e.Add("%s must be a valid mobile number", field)
	}
}

// Range 整数取值区间
func (e *Errors) Range(field string, value, min, max int) {
	if value < min || value > max {
		e.Add("%s must be between %d and %d", field, min, max)
	}
}

// NotFuture 日期不得晚于当前时刻（零值跳过）
func (e *Errors) NotFuture(field string, value time.Time) {
	if value.IsZero() {
		return
	}
	if value.After(time.Now()) {
		e.Add("%s cannot be in the future", field)
	}
}

// OneOf 枚举取值
func (e *Errors) OneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add("%s must be one of: %s", field, strings.Join(allowed, ", "))
}

// NormalizeEmail 存储/比较前的邮箱规范化
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseDate 解析日期输入，接受 RFC 3339 或 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
