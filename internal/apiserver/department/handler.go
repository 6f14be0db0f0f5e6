// Package department 部门管理接口
package department

import (
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

// Handler 部门 HTTP 处理器
type Handler struct {
	store storage.DepartmentStore
}

// NewHandler 创建部门处理器
func NewHandler(store storage.DepartmentStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册部门相关路由（全部需要认证）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/departments", mw.Require(h.Create))
	mux.HandleFunc("GET /api/departments", mw.Require(h.List))
	mux.HandleFunc("GET /api/departments/list/active", mw.Require(h.ListActive))
	mux.HandleFunc("GET /api/departments/{id}", mw.Require(h.Get))
	mux.HandleFunc("PUT /api/departments/{id}", mw.Require(h.Update))
	mux.HandleFunc("DELETE /api/departments/{id}", mw.Require(h.Delete))
}

type departmentRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (req *departmentRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Description = strings.TrimSpace(req.Description)
}

func (req *departmentRequest) validate() validate.Errors {
	var errs validate.Errors
	errs.Required("name", req.Name)
	errs.Length("name", req.Name, 2, 50)
	errs.Required("code", req.Code)
	errs.Length("code", req.Code, 2, 10)
	errs.Length("description", req.Description, 0, 200)
	return errs
}

// Create 创建部门
//
// 路由: POST /api/departments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	var req departmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.normalize()
	if errs := req.validate(); !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	// 名称/编码唯一性预检查（唯一索引兜底）
	if existing, err := h.store.GetDepartmentByName(r.Context(), req.Name); err != nil {
		httpx.Internal(w, r, err)
		return
	} else if existing != nil {
		httpx.Error(w, http.StatusBadRequest, "Department name already exists")
		return
	}
	if existing, err := h.store.GetDepartmentByCode(r.Context(), req.Code); err != nil {
		httpx.Internal(w, r, err)
		return
	} else if existing != nil {
		httpx.Error(w, http.StatusBadRequest, "Department code already exists")
		return
	}

	now := time.Now()
	dept := &model.Department{
		ID:          model.NewID("dept"),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		IsActive:    true,
		CreatedByID: admin.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateDepartment(r.Context(), dept); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Department name or code already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}
	dept.CreatedBy = &model.AdminRef{ID: admin.ID, FullName: admin.FullName}

	log.Printf("[department] Created: %s (%s) by %s", dept.Name, dept.ID, admin.ID)
	httpx.OK(w, http.StatusCreated, "Department created successfully", httpx.M{"department": dept})
}

// List 部门分页列表
//
// 路由: GET /api/departments?page=&limit=&search=&sortBy=&sortOrder=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := httpx.ParseListOptions(r)

	depts, total, err := h.store.ListDepartments(r.Context(), opts)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Departments retrieved successfully", httpx.M{
		"departments": depts,
		"pagination":  storage.NewPagination(opts, total),
	})
}

// ListActive 全部激活部门（下拉选项用，不分页）
//
// 路由: GET /api/departments/list/active
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.ListActiveDepartments(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Active departments retrieved successfully", httpx.M{"departments": refs})
}

// Get 部门详情
//
// 路由: GET /api/departments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	dept, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, "Department retrieved successfully", httpx.M{"department": dept})
}

// Update 更新部门
//
// 路由: PUT /api/departments/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	dept, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req departmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.normalize()
	if errs := req.validate(); !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	if req.Name != dept.Name {
		if existing, err := h.store.GetDepartmentByName(r.Context(), req.Name); err != nil {
			httpx.Internal(w, r, err)
			return
		} else if existing != nil {
			httpx.Error(w, http.StatusBadRequest, "Department name already exists")
			return
		}
	}
	if req.Code != dept.Code {
		if existing, err := h.store.GetDepartmentByCode(r.Context(), req.Code); err != nil {
			httpx.Internal(w, r, err)
			return
		} else if existing != nil {
			httpx.Error(w, http.StatusBadRequest, "Department code already exists")
			return
		}
	}

	dept.Name = req.Name
	dept.Code = req.Code
	dept.Description = req.Description
	if err := h.store.UpdateDepartment(r.Context(), dept); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Department name or code already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[department] Updated: %s (%s) by %s", dept.Name, dept.ID, admin.ID)
	httpx.OK(w, http.StatusOK, "Department updated successfully", httpx.M{"department": dept})
}

// Delete 软删除部门
//
// 路由: DELETE /api/departments/{id}
//
// 既有职位/员工证对该部门的引用不回溯处理。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	dept, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDeleteDepartment(r.Context(), dept.ID); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[department] Deleted: %s (%s) by %s", dept.Name, dept.ID, admin.ID)
	httpx.OK(w, http.StatusOK, "Department deleted successfully", nil)
}

// lookup 取路径中的部门；不存在或已软删除按 404 处理
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.Department, bool) {
	dept, err := h.store.GetDepartment(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Internal(w, r, err)
		return nil, false
	}
	if dept == nil || !dept.IsActive {
		httpx.Error(w, http.StatusNotFound, "Department not found")
		return nil, false
	}
	return dept, true
}
