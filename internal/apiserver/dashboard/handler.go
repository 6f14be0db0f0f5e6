// Package dashboard 后台仪表盘聚合接口
//
// 全部为只读聚合，每次请求即时计算，不做缓存。
package dashboard

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/shared/storage"
)

// 最近动态每类实体取的条数
const (
	defaultActivityLimit = 5
	maxActivityLimit     = 20
)

// Store 仪表盘依赖：统计聚合 + 连通性探测
type Store interface {
	storage.StatsStore
	Ping(ctx context.Context) error
}

// Handler 仪表盘 HTTP 处理器
type Handler struct {
	store Store

	startedAt time.Time
}

// NewHandler 创建仪表盘处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store, startedAt: time.Now()}
}

// RegisterRoutes 注册仪表盘相关路由（全部需要认证）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboard/overview", mw.Require(h.Overview))
	mux.HandleFunc("GET /api/dashboard/charts", mw.Require(h.Charts))
	mux.HandleFunc("GET /api/dashboard/recent-activity", mw.Require(h.RecentActivity))
	mux.HandleFunc("GET /api/dashboard/system-health", mw.Require(h.SystemHealth))
	mux.HandleFunc("GET /api/dashboard/quick-stats", mw.Require(h.QuickStats))
}

// Overview 总量与近期增量计数
//
// 路由: GET /api/dashboard/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.store.DashboardOverview(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Dashboard overview retrieved successfully", httpx.M{"overview": overview})
}

// Charts 近 12 个月走势与分布图数据
//
// 路由: GET /api/dashboard/charts
func (h *Handler) Charts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.store.DashboardCharts(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Dashboard charts retrieved successfully", httpx.M{"charts": charts})
}

// RecentActivity 各实体最近动态
//
// 路由: GET /api/dashboard/recent-activity?limit=
func (h *Handler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultActivityLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = min(n, maxActivityLimit)
		}
	}

	activity, err := h.store.RecentActivity(r.Context(), limit)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Recent activity retrieved successfully", httpx.M{"activity": activity})
}

// SystemHealth 数据库连通性与各集合记录数
//
// 路由: GET /api/dashboard/system-health
//
// 数据库失联不按 500 处理：返回 200 + status=unhealthy，
// 监控端靠内容而非状态码判定。
func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "connected"
	var counts map[string]int64

	if err := h.store.Ping(r.Context()); err != nil {
		status, dbStatus = "unhealthy", "disconnected"
	} else if c, err := h.store.CollectionCounts(r.Context()); err != nil {
		status = "degraded"
	} else {
		counts = c
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	httpx.OK(w, http.StatusOK, "System health retrieved successfully", httpx.M{
		"status":        status,
		"database":      dbStatus,
		"collections":   counts,
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
		"serverTime":    time.Now().UTC().Format(time.RFC3339),
		"memory": httpx.M{
			"allocBytes":      mem.Alloc,
			"totalAllocBytes": mem.TotalAlloc,
			"sysBytes":        mem.Sys,
			"numGC":           mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	})
}

// QuickStats 今日 / 本周 / 本月新增
//
// 路由: GET /api/dashboard/quick-stats
func (h *Handler) QuickStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.QuickStats(r.Context(), time.Now())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Quick stats retrieved successfully", httpx.M{"stats": stats})
}
