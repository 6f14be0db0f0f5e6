// Package contact 联系表单接口
//
// 提交端点公开、无需认证；查询与管理全部在后台。联系记录是唯一
// 支持物理删除的实体。
package contact

import (
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

// Handler 联系表单 HTTP 处理器
type Handler struct {
	store storage.ContactStore
}

// NewHandler 创建联系表单处理器
func NewHandler(store storage.ContactStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册联系表单相关路由
//
// 提交为公开 POST，其余方法同一路径树下要求认证。
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/contact", h.Submit)

	mux.HandleFunc("GET /api/contact", mw.Require(h.List))
	mux.HandleFunc("GET /api/contact/stats/overview", mw.Require(h.Stats))
	mux.HandleFunc("GET /api/contact/{id}", mw.Require(h.Get))
	mux.HandleFunc("PUT /api/contact/{id}", mw.Require(h.UpdateStatus))
	mux.HandleFunc("DELETE /api/contact/{id}", mw.Require(h.Delete))
}

type submitRequest struct {
	FullName     string `json:"fullName"`
	EmailAddress string `json:"emailAddress"`
	MobileNumber string `json:"mobileNumber"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
}

// Submit 公开提交联系表单
//
// 路由: POST /api/contact
//
// 服务端捕获来源 IP 与 User-Agent，响应只回执 ID，不回显全文。
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.EmailAddress = validate.NormalizeEmail(req.EmailAddress)
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	var errs validate.Errors
	errs.Required("fullName", req.FullName)
	errs.Length("fullName", req.FullName, 2, 100)
	errs.Required("emailAddress", req.EmailAddress)
	errs.Email("emailAddress", req.EmailAddress)
	errs.Mobile("mobileNumber", req.MobileNumber)
	errs.Required("subject", req.Subject)
	errs.Length("subject", req.Subject, 5, 100)
	errs.Required("message", req.Message)
	errs.Length("message", req.Message, 10, 1000)
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	now := time.Now()
	c := &model.Contact{
		ID:           model.NewID("contact"),
		FullName:     req.FullName,
		EmailAddress: req.EmailAddress,
		MobileNumber: req.MobileNumber,
		Subject:      req.Subject,
		Message:      req.Message,
		Status:       model.ContactNew,
		IPAddress:    httpx.ClientIP(r),
		UserAgent:    r.UserAgent(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateContact(r.Context(), c); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[contact] Submission %s from %s (%s)", c.ID, c.EmailAddress, c.IPAddress)
	httpx.OK(w, http.StatusCreated, "Contact form submitted successfully. We will get back to you soon!",
		httpx.M{"id": c.ID})
}

// List 联系记录分页列表
//
// 路由: GET /api/contact?page=&limit=&search=&status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := httpx.ParseListOptions(r, "status")

	contacts, total, err := h.store.ListContacts(r.Context(), opts)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Contacts retrieved successfully", httpx.M{
		"contacts":   contacts,
		"pagination": storage.NewPagination(opts, total),
	})
}

// Stats 联系记录统计：总量、状态分布、近 6 个月走势
//
// 路由: GET /api/contact/stats/overview
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.ContactStats(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Contact statistics retrieved successfully", httpx.M{"stats": stats})
}

// Get 联系记录详情；首次查看自动将 new 置为 read
//
// 路由: GET /api/contact/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if c.Status == model.ContactNew {
		if err := h.store.UpdateContactStatus(r.Context(), c.ID, model.ContactRead); err != nil {
			// 已读标记失败不影响读取
			log.Printf("[contact] mark read %s failed: %v", c.ID, err)
		} else {
			c.Status = model.ContactRead
		}
	}
	httpx.OK(w, http.StatusOK, "Contact retrieved successfully", httpx.M{"contact": c})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus 更新处理状态
//
// 路由: PUT /api/contact/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status := model.ContactStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		httpx.Error(w, http.StatusBadRequest, "Invalid status",
			"status must be one of: new, read, replied, closed")
		return
	}

	if err := h.store.UpdateContactStatus(r.Context(), c.ID, status); err != nil {
		httpx.Internal(w, r, err)
		return
	}
	c.Status = status
	httpx.OK(w, http.StatusOK, "Contact status updated successfully", httpx.M{"contact": c})
}

// Delete 物理删除联系记录
//
// 路由: DELETE /api/contact/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteContact(r.Context(), c.ID); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[contact] Deleted: %s by %s", c.ID, admin.ID)
	httpx.OK(w, http.StatusOK, "Contact deleted successfully", nil)
}

// lookup 取路径中的联系记录；不存在按 404 处理
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.Contact, bool) {
	c, err := h.store.GetContact(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Internal(w, r, err)
		return nil, false
	}
	if c == nil {
		httpx.Error(w, http.StatusNotFound, "Contact not found")
		return nil, false
	}
	return c, true
}
