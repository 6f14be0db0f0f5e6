// Package server 路由配置与核心基础设施
//
// 本文件把各领域独立包的路由装配成完整的 HTTP 服务：
// 认证、部门、职位、员工证、产品、联系表单、仪表盘，
// 外加健康检查、Prometheus 指标和本地上传文件的静态托管。
package server

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/contact"
	"company-admin/internal/apiserver/dashboard"
	"company-admin/internal/apiserver/department"
	"company-admin/internal/apiserver/designation"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/apiserver/idcard"
	"company-admin/internal/apiserver/product"
	"company-admin/internal/config"
	"company-admin/internal/shared/storage"
	"company-admin/internal/shared/upload"
)

// Handler 聚合路由所需的全部依赖
type Handler struct {
	store   storage.Store
	cfg     *config.Config
	uploads upload.Store
	metrics *Metrics

	// 本地上传根目录；minio 后端时为空，不挂载静态路由
	staticRoot string
}

// NewHandler 创建服务端 Handler
func NewHandler(store storage.Store, cfg *config.Config, uploads upload.Store, staticRoot string) *Handler {
	return &Handler{
		store:      store,
		cfg:        cfg,
		uploads:    uploads,
		metrics:    NewMetrics("company_admin"),
		staticRoot: staticRoot,
	}
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/admin/signup、/api/admin/login、/api/admin/logout
//   - GET/PUT /api/admin/profile，PUT /api/admin/change-password
//
// 部门/职位/员工证: /api/departments、/api/designations、/api/id-cards
// 下的 CRUD 与统计端点（全部需要认证）
//
// 产品:
//   - 公开: GET /api/products、/api/products/{id}、/api/products/categories/list
//   - 后台: POST/PUT/DELETE 与图片端点，要求认证
//
// 联系表单:
//   - 公开: POST /api/contact
//   - 后台: 同一路径树下的查询、状态更新与删除
//
// 仪表盘: /api/dashboard 下的聚合端点
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// 认证中间件：令牌解析 + 账号状态校验
	mw := auth.NewMiddleware(h.store, h.cfg.Auth.JWTSecret)

	authHandler := auth.NewHandler(h.store, h.cfg.Auth.JWTSecret)
	authHandler.LoginHook = h.metrics.RecordLogin
	authHandler.RegisterRoutes(mux, mw)

	deptHandler := department.NewHandler(h.store)
	deptHandler.RegisterRoutes(mux, mw)

	desigHandler := designation.NewHandler(h.store)
	desigHandler.RegisterRoutes(mux, mw)

	// 上传打点：按 kind 统计次数与字节数
	uploads := &instrumentedUploads{inner: h.uploads, metrics: h.metrics}

	cardHandler := idcard.NewHandler(h.store, uploads)
	cardHandler.RegisterRoutes(mux, mw)

	productHandler := product.NewHandler(h.store, uploads)
	productHandler.RegisterRoutes(mux, mw)

	contactHandler := contact.NewHandler(h.store)
	contactHandler.RegisterRoutes(mux, mw)

	dashHandler := dashboard.NewHandler(h.store)
	dashHandler.RegisterRoutes(mux, mw)

	// 本地上传文件静态托管（minio 后端由对象存储直接出流量）
	if h.staticRoot != "" {
		fs := http.StripPrefix(upload.PublicPrefix, http.FileServer(http.Dir(h.staticRoot)))
		mux.Handle("GET "+upload.PublicPrefix, fs)
	}

	// 全局兜底：未匹配的路径统一走信封格式
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Route not found")
	})

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用 CORS 中间件
	return corsMiddleware(h.cfg.CORS.AllowedOrigins, apiHandler)
}

// Health 服务健康检查
//
// 路由: GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	db := "connected"
	if err := h.store.Ping(r.Context()); err != nil {
		db = "disconnected"
	}
	httpx.OK(w, http.StatusOK, "OK", httpx.M{
		"database":  db,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// instrumentedUploads 在上传后端外包一层指标上报
type instrumentedUploads struct {
	inner   upload.Store
	metrics *Metrics
}

func (u *instrumentedUploads) Save(ctx context.Context, kind upload.Kind, fh *multipart.FileHeader) (string, error) {
	path, err := u.inner.Save(ctx, kind, fh)
	if err == nil {
		u.metrics.RecordUpload(string(kind), fh.Size)
	}
	return path, err
}

func (u *instrumentedUploads) Remove(ctx context.Context, publicPath string) error {
	return u.inner.Remove(ctx, publicPath)
}

// corsMiddleware 添加 CORS 头支持跨域请求
//
// allowedOrigins 含 "*" 时放行任意来源；否则按白名单回显 Origin。
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
