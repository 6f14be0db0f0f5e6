package mongostore

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"company-admin/internal/shared/storage"
)

// sortFieldMap API 排序字段名 → bson 字段名
//
// 未收录的字段名回落到 created_at，避免把任意输入透传进排序。
var sortFieldMap = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"name":          "name",
	"code":          "code",
	"title":         "title",
	"level":         "level",
	"fullName":      "full_name",
	"email":         "email",
	"productName":   "product_name",
	"price":         "price",
	"category":      "category",
	"status":        "status",
	"subject":       "subject",
	"employeeType":  "employee_type",
	"idCardNumber":  "id_card_number",
	"dateOfJoining": "date_of_joining",
	"lastLogin":     "last_login",
}

// findOptions 由 ListOptions 构建排序 + 分页选项
// 过滤先于排序、排序先于分页（skip = (page-1)*limit）
func findOptions(opts storage.ListOptions) options.Lister[options.FindOptions] {
	field, ok := sortFieldMap[opts.SortBy]
	if !ok {
		field = "created_at"
	}
	order := 1
	if opts.SortDesc {
		order = -1
	}
	return options.Find().
		SetSort(bson.D{{Key: field, Value: order}}).
		SetSkip(opts.Skip()).
		SetLimit(opts.Limit)
}
