package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/apiserver/validate"
	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// AdminStore 管理员账号存储接口
type AdminStore interface {
	AdminResolver
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	UpdateAdminProfile(ctx context.Context, id, fullName, email string) error
	UpdateAdminPassword(ctx context.Context, id, passwordHash string) error
	UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store  AdminStore
	secret string

	// LoginHook 登录结果回调（success / failure），用于指标上报，可为 nil
	LoginHook func(result string)
}

// NewHandler 创建认证处理器
func NewHandler(store AdminStore, secret string) *Handler {
	return &Handler{store: store, secret: secret}
}

func (h *Handler) recordLogin(result string) {
	if h.LoginHook != nil {
		h.LoginHook(result)
	}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *Middleware) {
	mux.HandleFunc("POST /api/admin/signup", h.Signup)
	mux.HandleFunc("POST /api/admin/login", h.Login)
	mux.HandleFunc("GET /api/admin/profile", mw.Require(h.Profile))
	mux.HandleFunc("PUT /api/admin/profile", mw.Require(h.UpdateProfile))
	mux.HandleFunc("PUT /api/admin/change-password", mw.Require(h.ChangePassword))
	mux.HandleFunc("POST /api/admin/logout", mw.Require(h.Logout))
}

// ============================================================================
// 请求类型
// ============================================================================

type signupRequest struct {
	FullName string          `json:"fullName"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     model.AdminRole `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ============================================================================
// Handlers
// ============================================================================

// Signup 管理员注册
//
// 路由: POST /api/admin/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = validate.NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = model.RoleAdmin
	}

	var errs validate.Errors
	errs.Required("fullName", req.FullName)
	errs.Length("fullName", req.FullName, 2, 50)
	if errs.Required("email", req.Email) {
		errs.Email("email", req.Email)
	}
	if errs.Required("password", req.Password) && len(req.Password) < 6 {
		errs.Add("password must be at least 6 characters")
	}
	if !req.Role.Valid() {
		errs.Add("role must be admin or super_admin")
	}
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	existing, err := h.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	if existing != nil {
		httpx.Error(w, http.StatusBadRequest, "Admin with this email already exists")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}

	now := time.Now()
	admin := &model.Admin{
		ID:           model.NewID("adm"),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateAdmin(r.Context(), admin); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Admin with this email already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	token, err := GenerateToken(h.secret, admin)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[auth] Admin registered: %s (%s)", admin.Email, admin.ID)
	httpx.OK(w, http.StatusCreated, "Admin registered successfully", httpx.M{
		"admin": admin,
		"token": token,
	})
}

// Login 管理员登录
//
// 路由: POST /api/admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = validate.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := h.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	// 不区分“账号不存在”与“密码错误”，避免枚举邮箱
	if admin == nil || !CheckPassword(req.Password, admin.PasswordHash) {
		h.recordLogin("failure")
		httpx.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !admin.IsActive {
		h.recordLogin("failure")
		httpx.Error(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	now := time.Now()
	if err := h.store.UpdateAdminLastLogin(r.Context(), admin.ID, now); err != nil {
		log.Printf("[auth] update last login for %s failed: %v", admin.ID, err)
	}
	admin.LastLogin = &now

	token, err := GenerateToken(h.secret, admin)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}

	h.recordLogin("success")
	log.Printf("[auth] Admin logged in: %s", admin.Email)
	httpx.OK(w, http.StatusOK, "Login successful", httpx.M{
		"admin": admin,
		"token": token,
	})
}

// Profile 获取当前管理员信息
//
// 路由: GET /api/admin/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	admin := AdminFrom(r.Context())
	httpx.OK(w, http.StatusOK, "Profile retrieved successfully", httpx.M{"admin": admin})
}

// UpdateProfile 更新当前管理员资料
//
// 路由: PUT /api/admin/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	admin := AdminFrom(r.Context())

	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = validate.NormalizeEmail(req.Email)

	var errs validate.Errors
	errs.Required("fullName", req.FullName)
	errs.Length("fullName", req.FullName, 2, 50)
	if errs.Required("email", req.Email) {
		errs.Email("email", req.Email)
	}
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	// 邮箱唯一性预检查（唯一索引兜底）
	if req.Email != admin.Email {
		existing, err := h.store.GetAdminByEmail(r.Context(), req.Email)
		if err != nil {
			httpx.Internal(w, r, err)
			return
		}
		if existing != nil {
			httpx.Error(w, http.StatusBadRequest, "Email already in use")
			return
		}
	}

	if err := h.store.UpdateAdminProfile(r.Context(), admin.ID, req.FullName, req.Email); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Email already in use")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	admin.FullName = req.FullName
	admin.Email = req.Email
	httpx.OK(w, http.StatusOK, "Profile updated successfully", httpx.M{"admin": admin})
}

// ChangePassword 修改当前管理员密码
//
// 路由: PUT /api/admin/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	admin := AdminFrom(r.Context())

	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.Error(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if len(req.NewPassword) < 6 {
		httpx.Error(w, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}

	if !CheckPassword(req.CurrentPassword, admin.PasswordHash) {
		httpx.Error(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	if err := h.store.UpdateAdminPassword(r.Context(), admin.ID, hash); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[auth] Password changed: %s", admin.Email)
	httpx.OK(w, http.StatusOK, "Password changed successfully", nil)
}

// Logout 登出
//
// 路由: POST /api/admin/logout
//
// 令牌是无状态 JWT，服务端不维护会话；端点存在是为了前端统一调用，
// 真正的失效由客户端丢弃令牌完成。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, "Logged out successfully", nil)
}

// ============================================================================
// Super Admin Bootstrap
// ============================================================================

// EnsureSuperAdmin 确保超级管理员存在（启动时调用）
// 配置了 ADMIN_EMAIL 且数据库中不存在该账号时自动创建
func EnsureSuperAdmin(store AdminStore, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	email = validate.NormalizeEmail(email)

	ctx := context.Background()
	existing, err := store.GetAdminByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check super admin: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Super admin already exists: %s (%s)", email, existing.ID)
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash super admin password: %w", err)
	}

	now := time.Now()
	admin := &model.Admin{
		ID:           model.NewID("adm"),
		FullName:     "Super Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}
	log.Printf("[auth] Created super admin: %s (%s)", email, admin.ID)
	return nil
}
