// Package httpx API 响应信封与请求解析工具
//
// 所有端点统一返回：
//
//	{"success": true,  "message": "...", "data": {...}}
//	{"success": false, "message": "...", "errors": ["..."]}
//
// 列表端点在 data 中内嵌 pagination 块。
package httpx

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"company-admin/internal/shared/storage"
)

// Envelope 统一响应信封
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// M data 简写
type M map[string]interface{}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// OK 成功响应
func OK(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error 失败响应，可附带逐字段错误列表
func Error(w http.ResponseWriter, status int, message string, errs ...string) {
	write(w, status, Envelope{Success: false, Message: message, Errors: errs})
}

// ExposeInternalErrors 非生产环境置 true：500 响应附带底层错误信息，
// 方便联调。生产环境保持 false，细节只进日志。
var ExposeInternalErrors bool

// Internal 服务端错误：日志记录细节，对外默认只暴露通用信息
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("[http] %s %s failed: %v", r.Method, r.URL.Path, err)
	if ExposeInternalErrors {
		Error(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	Error(w, http.StatusInternalServerError, "Internal server error")
}

// DecodeJSON 解析 JSON 请求体
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ParseListOptions 从查询参数解析列表协议
//
// page/limit/search/sortBy/sortOrder 为通用参数；filterKeys 声明该端点
// 接受的等值过滤参数名，未声明的查询参数一律忽略。
func ParseListOptions(r *http.Request, filterKeys ...string) storage.ListOptions {
	q := r.URL.Query()

	opts := storage.ListOptions{
		Page:   parseInt64(q.Get("page")),
		Limit:  parseInt64(q.Get("limit")),
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: q.Get("sortBy"),
	}
	switch strings.ToLower(q.Get("sortOrder")) {
	case "asc":
		opts.SortDesc = false
	default:
		opts.SortDesc = true
	}

	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			if opts.Filters == nil {
				opts.Filters = map[string]string{}
			}
			opts.Filters[key] = v
		}
	}

	opts.Normalize()
	return opts
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ClientIP 提取客户端 IP：优先代理头，回落到连接地址
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
