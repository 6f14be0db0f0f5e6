// Package designation 职位管理接口
package designation

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/apiserver/validate"
	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// Store 职位处理器依赖：职位存取 + 部门引用校验
type Store interface {
	storage.DesignationStore
	GetDepartment(ctx context.Context, id string) (*model.Department, error)
}

// Handler 职位 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建职位处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册职位相关路由（全部需要认证）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/designations", mw.Require(h.Create))
	mux.HandleFunc("GET /api/designations", mw.Require(h.List))
	mux.HandleFunc("GET /api/designations/list/active", mw.Require(h.ListActive))
	mux.HandleFunc("GET /api/designations/department/{departmentId}", mw.Require(h.ListByDepartment))
	mux.HandleFunc("GET /api/designations/{id}", mw.Require(h.Get))
	mux.HandleFunc("PUT /api/designations/{id}", mw.Require(h.Update))
	mux.HandleFunc("DELETE /api/designations/{id}", mw.Require(h.Delete))
}

type designationRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       int    `json:"level"`
	Department  string `json:"department"`
}

func (req *designationRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Department = strings.TrimSpace(req.Department)
}

func (req *designationRequest) validate() validate.Errors {
	var errs validate.Errors
	errs.Required("title", req.Title)
	errs.Length("title", req.Title, 2, 50)
	errs.Length("description", req.Description, 0, 200)
	errs.Range("level", req.Level, model.DesignationMinLevel, model.DesignationMaxLevel)
	errs.Required("department", req.Department)
	return errs
}

// checkDepartment 引用的部门必须存在且处于激活状态
func (h *Handler) checkDepartment(w http.ResponseWriter, r *http.Request, id string) bool {
	dept, err := h.store.GetDepartment(r.Context(), id)
	if err != nil {
		httpx.Internal(w, r, err)
		return false
	}
	if dept == nil || !dept.IsActive {
		httpx.Error(w, http.StatusBadRequest, "Invalid department")
		return false
	}
	return true
}

// Create 创建职位
//
// 路由: POST /api/designations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	var req designationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.normalize()
	if errs := req.validate(); !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}
	if !h.checkDepartment(w, r, req.Department) {
		return
	}

	if existing, err := h.store.GetDesignationByTitle(r.Context(), req.Title); err != nil {
		httpx.Internal(w, r, err)
		return
	} else if existing != nil {
		httpx.Error(w, http.StatusBadRequest, "Designation title already exists")
		return
	}

	now := time.Now()
	d := &model.Designation{
		ID:           model.NewID("desig"),
		Title:        req.Title,
		Description:  req.Description,
		Level:        req.Level,
		DepartmentID: req.Department,
		IsActive:     true,
		CreatedByID:  admin.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateDesignation(r.Context(), d); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Designation title already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[designation] Created: %s (%s) by %s", d.Title, d.ID, admin.ID)
	httpx.OK(w, http.StatusCreated, "Designation created successfully", httpx.M{"designation": d})
}

// List 职位分页列表
//
// 路由: GET /api/designations?page=&limit=&search=&department=&level=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := httpx.ParseListOptions(r, "department", "level")

	list, total, err := h.store.ListDesignations(r.Context(), opts)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Designations retrieved successfully", httpx.M{
		"designations": list,
		"pagination":   storage.NewPagination(opts, total),
	})
}

// ListActive 全部激活职位（下拉选项用，不分页）
//
// 路由: GET /api/designations/list/active
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListActiveDesignations(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Active designations retrieved successfully", httpx.M{"designations": list})
}

// ListByDepartment 指定部门下的激活职位
//
// 路由: GET /api/designations/department/{departmentId}
func (h *Handler) ListByDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := r.PathValue("departmentId")
	if !h.checkDepartment(w, r, departmentID) {
		return
	}

	refs, err := h.store.ListDesignationsByDepartment(r.Context(), departmentID)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Designations retrieved successfully", httpx.M{"designations": refs})
}

// Get 职位详情
//
// 路由: GET /api/designations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, "Designation retrieved successfully", httpx.M{"designation": d})
}

// Update 更新职位
//
// 路由: PUT /api/designations/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req designationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.normalize()
	if errs := req.validate(); !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}
	if !h.checkDepartment(w, r, req.Department) {
		return
	}

	if req.Title != d.Title {
		if existing, err := h.store.GetDesignationByTitle(r.Context(), req.Title); err != nil {
			httpx.Internal(w, r, err)
			return
		} else if existing != nil {
			httpx.Error(w, http.StatusBadRequest, "Designation title already exists")
			return
		}
	}

	d.Title = req.Title
	d.Description = req.Description
	d.Level = req.Level
	d.DepartmentID = req.Department
	d.Department = nil // 引用可能变化，交给读取路径回填
	if err := h.store.UpdateDesignation(r.Context(), d); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Designation title already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[designation] Updated: %s (%s) by %s", d.Title, d.ID, admin.ID)
	httpx.OK(w, http.StatusOK, "Designation updated successfully", httpx.M{"designation": d})
}

// Delete 软删除职位
//
// 路由: DELETE /api/designations/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDeleteDesignation(r.Context(), d.ID); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[designation] Deleted: %s (%s) by %s", d.Title, d.ID, admin.ID)
	httpx.OK(w, http.StatusOK, "Designation deleted successfully", nil)
}

// lookup 取路径中的职位；不存在或已软删除按 404 处理
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.Designation, bool) {
	d, err := h.store.GetDesignation(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Internal(w, r, err)
		return nil, false
	}
	if d == nil || !d.IsActive {
		httpx.Error(w, http.StatusNotFound, "Designation not found")
		return nil, false
	}
	return d, true
}
