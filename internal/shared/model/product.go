package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrNoFeatures 特性列表清洗后为空
var ErrNoFeatures = errors.New("at least one product feature is required")

// Product 产品
//
// 无软删除之外的删除方式；仅创建者或超级管理员可修改。
// productName + description 建有全文索引供列表搜索。
type Product struct {
	ID               string    `json:"id" bson:"_id"`
	ProductName      string    `json:"productName" bson:"product_name"`
	ProductFeatures  []string  `json:"productFeatures" bson:"product_features"`
	MainImage        string    `json:"mainImage" bson:"main_image"`
	AdditionalImages []string  `json:"additionalImages" bson:"additional_images"`
	Description      string    `json:"description,omitempty" bson:"description,omitempty"`
	Price            *float64  `json:"price,omitempty" bson:"price,omitempty"`
	Category         string    `json:"category,omitempty" bson:"category,omitempty"`
	IsActive         bool      `json:"isActive" bson:"is_active"`
	CreatedByID      string    `json:"-" bson:"created_by"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`

	// populate 填充，不落库
	CreatedBy *AdminRef `json:"createdBy,omitempty" bson:"-"`
}

// ParseProductFeatures 解析特性输入
//
// 兼容三种形态：JSON 数组、JSON 字符串、裸字符串（包装为单元素列表）。
// 清洗掉空白项后为空返回 ErrNoFeatures。
func ParseProductFeatures(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoFeatures
	}

	var features []string
	var asList []string
	if err := json.Unmarshal([]byte(raw), &asList); err == nil {
		features = asList
	} else {
		var asString string
		if err := json.Unmarshal([]byte(raw), &asString); err == nil {
			features = []string{asString}
		} else {
			// 非 JSON：按裸字符串处理
			features = []string{raw}
		}
	}

	out := features[:0]
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoFeatures
	}
	return out, nil
}
