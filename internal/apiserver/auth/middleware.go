package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/shared/model"
)

// AdminResolver 中间件用来把令牌主体解析成管理员记录
type AdminResolver interface {
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
}

// Middleware JWT 认证中间件
//
// Require 用于后台端点；Optional 用于公开但对登录者增强的端点
//（如产品列表对匿名访客只读开放）。两者都把解析出的管理员挂到 context。
type Middleware struct {
	store  AdminResolver
	secret string
}

// NewMiddleware 创建认证中间件
func NewMiddleware(store AdminResolver, secret string) *Middleware {
	return &Middleware{store: store, secret: secret}
}

// Require 强制认证：缺失/非法令牌、账号不存在或已停用一律 401
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := m.resolve(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(WithAdmin(r.Context(), admin)))
	}
}

// Optional 可选认证：带合法令牌则注入管理员，否则按匿名放行
func (m *Middleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next(w, r)
			return
		}
		claims, err := ParseToken(m.secret, token)
		if err != nil {
			next(w, r)
			return
		}
		admin, err := m.store.GetAdminByID(r.Context(), claims.Subject)
		if err != nil || admin == nil || !admin.IsActive {
			next(w, r)
			return
		}
		next(w, r.WithContext(WithAdmin(r.Context(), admin)))
	}
}

// resolve 提取 Bearer 令牌并解析为激活的管理员；失败时已写出 401
func (m *Middleware) resolve(w http.ResponseWriter, r *http.Request) (*model.Admin, bool) {
	token := bearerToken(r)
	if token == "" {
		httpx.Error(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	claims, err := ParseToken(m.secret, token)
	if err != nil {
		log.Printf("[auth] token parse error: %v", err)
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}

	admin, err := m.store.GetAdminByID(r.Context(), claims.Subject)
	if err != nil {
		httpx.Internal(w, r, err)
		return nil, false
	}
	if admin == nil || !admin.IsActive {
		httpx.Error(w, http.StatusUnauthorized, "Account not found or deactivated")
		return nil, false
	}
	return admin, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
