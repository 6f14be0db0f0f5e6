package storage

// 分页默认值与上限
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListOptions 列表协议：过滤 → 排序 → 分页，所有列表端点共用
type ListOptions struct {
	Page      int64             // 1 起始
	Limit     int64             // 每页条数
	Search    string            // 大小写不敏感子串匹配（Product 走全文索引）
	Filters   map[string]string // 实体相关等值过滤（status/department/employeeType/category）
	SortBy    string            // 默认 createdAt
	SortDesc  bool              // 默认 true
}

// Normalize 填充默认值并收敛到合法区间
func (o *ListOptions) Normalize() {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.SortBy == "" {
		o.SortBy = "createdAt"
		o.SortDesc = true
	}
}

// Skip 返回跳过的记录数
func (o ListOptions) Skip() int64 {
	return (o.Page - 1) * o.Limit
}

// Filter 读取等值过滤项
func (o ListOptions) Filter(key string) string {
	if o.Filters == nil {
		return ""
	}
	return o.Filters[key]
}

// Pagination 列表响应中的分页块
type Pagination struct {
	CurrentPage  int64 `json:"currentPage"`
	TotalPages   int64 `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// NewPagination 由总数计算分页块
//
// totalPages = ceil(total/limit)；hasNextPage = page*limit < total。
func NewPagination(opts ListOptions, total int64) Pagination {
	totalPages := total / opts.Limit
	if total%opts.Limit != 0 {
		totalPages++
	}
	return Pagination{
		CurrentPage:  opts.Page,
		TotalPages:   totalPages,
		TotalRecords: total,
		HasNextPage:  opts.Page*opts.Limit < total,
		HasPrevPage:  opts.Page > 1,
	}
}
