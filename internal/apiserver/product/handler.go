// Package product 产品管理接口
//
// 列表与详情对匿名访客开放（营销页直读），写操作全部要求认证。
// 图片走 multipart 上传：创建时主图必填，附图最多 5 张。
package product

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/apiserver/validate"
	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
	"company-admin/internal/shared/upload"
)

// multipart 解析的内存上限，超出部分落临时文件
const maxFormMemory = 32 << 20

// Handler 产品 HTTP 处理器
type Handler struct {
	store   storage.ProductStore
	uploads upload.Store
}

// NewHandler 创建产品处理器
func NewHandler(store storage.ProductStore, uploads upload.Store) *Handler {
	return &Handler{store: store, uploads: uploads}
}

// RegisterRoutes 注册产品相关路由
//
// 读接口对匿名访客开放（带令牌则解析，便于后续个性化），写接口要求认证。
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/products", mw.Optional(h.List))
	mux.HandleFunc("GET /api/products/categories/list", mw.Optional(h.Categories))
	mux.HandleFunc("GET /api/products/{id}", mw.Optional(h.Get))

	mux.HandleFunc("POST /api/products", mw.Require(h.Create))
	mux.HandleFunc("PUT /api/products/{id}", mw.Require(h.Update))
	mux.HandleFunc("POST /api/products/{id}/images", mw.Require(h.AddImages))
	mux.HandleFunc("PUT /api/products/{id}/main-image", mw.Require(h.UpdateMainImage))
	mux.HandleFunc("DELETE /api/products/{id}", mw.Require(h.Delete))
}

// Create 创建产品（multipart 表单）
//
// 路由: POST /api/products
//
// 字段：productName、productFeatures（JSON 数组 / JSON 字符串 / 裸字符串）、
// description、price、category；文件：mainImage（必填）、additionalImages（≤5）。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("productName"))
	description := strings.TrimSpace(r.FormValue("description"))
	category := strings.TrimSpace(r.FormValue("category"))

	var errs validate.Errors
	errs.Required("productName", name)
	errs.Length("productName", name, 1, 100)
	errs.Length("description", description, 0, 2000)

	features, err := model.ParseProductFeatures(r.FormValue("productFeatures"))
	if err != nil {
		errs.Add("%s", err.Error())
	}

	price, perr := parsePrice(r.FormValue("price"))
	if perr != nil {
		errs.Add("price must be a non-negative number")
	}

	mainImages := formFiles(r, "mainImage")
	if len(mainImages) == 0 {
		errs.Add("mainImage is required")
	}
	additional := formFiles(r, "additionalImages")
	if len(additional) > upload.MaxAdditionalImages {
		errs.Add("%s", upload.ErrTooManyFiles.Error())
	}
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	mainPath, err := h.uploads.Save(r.Context(), upload.KindProductMain, mainImages[0])
	if err != nil {
		h.uploadError(w, r, err)
		return
	}
	var additionalPaths []string
	for _, fh := range additional {
		p, err := h.uploads.Save(r.Context(), upload.KindProductAdditional, fh)
		if err != nil {
			h.uploadError(w, r, err)
			return
		}
		additionalPaths = append(additionalPaths, p)
	}

	now := time.Now()
	p := &model.Product{
		ID:               model.NewID("prod"),
		ProductName:      name,
		ProductFeatures:  features,
		MainImage:        mainPath,
		AdditionalImages: additionalPaths,
		Description:      description,
		Price:            price,
		Category:         category,
		IsActive:         true,
		CreatedByID:      admin.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.store.CreateProduct(r.Context(), p); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[product] Created: %s (%s) by %s", p.ProductName, p.ID, admin.ID)
	httpx.OK(w, http.StatusCreated, "Product created successfully", httpx.M{"product": p})
}

// List 产品分页列表
//
// 路由: GET /api/products
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := httpx.ParseListOptions(r, "category")

	products, total, err := h.store.ListProducts(r.Context(), opts)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Products retrieved successfully", httpx.M{
		"products":   products,
		"pagination": storage.NewPagination(opts, total),
	})
}

// Categories 激活产品的去重分类列表
//
// 路由: GET /api/products/categories/list
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListProductCategories(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Categories retrieved successfully", httpx.M{"categories": categories})
}

// Get 产品详情
//
// 路由: GET /api/products/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, "Product retrieved successfully", httpx.M{"product": p})
}

type updateProductRequest struct {
	ProductName     *string   `json:"productName"`
	ProductFeatures *[]string `json:"productFeatures"`
	Description     *string   `json:"description"`
	Price           *float64  `json:"price"`
	Category        *string   `json:"category"`
}

// Update 更新产品文本字段（仅创建者或超级管理员）
//
// 路由: PUT /api/products/{id}
//
// 指针字段实现部分更新：缺省字段保持不变。图片走独立端点。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !admin.CanMutate(p.CreatedByID) {
		httpx.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs validate.Errors
	if req.ProductName != nil {
		name := strings.TrimSpace(*req.ProductName)
		errs.Required("productName", name)
		errs.Length("productName", name, 1, 100)
		p.ProductName = name
	}
	if req.ProductFeatures != nil {
		features := make([]string, 0, len(*req.ProductFeatures))
		for _, f := range *req.ProductFeatures {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
		if len(features) == 0 {
			errs.Add("%s", model.ErrNoFeatures.Error())
		}
		p.ProductFeatures = features
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		errs.Length("description", desc, 0, 2000)
		p.Description = desc
	}
	if req.Price != nil {
		if *req.Price < 0 {
			errs.Add("price must be a non-negative number")
		}
		p.Price = req.Price
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Product updated successfully", httpx.M{"product": p})
}

// AddImages 追加附图（multipart 表单，仅创建者或超级管理员）
//
// 路由: POST /api/products/{id}/images
//
// 追加后的总数不得超过上限；既有附图保留。
func (h *Handler) AddImages(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !admin.CanMutate(p.CreatedByID) {
		httpx.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	additional := formFiles(r, "additionalImages")
	if len(additional) == 0 {
		httpx.Error(w, http.StatusBadRequest, "At least one image is required")
		return
	}
	if len(p.AdditionalImages)+len(additional) > upload.MaxAdditionalImages {
		httpx.Error(w, http.StatusBadRequest, upload.ErrTooManyFiles.Error())
		return
	}

	for _, fh := range additional {
		path, err := h.uploads.Save(r.Context(), upload.KindProductAdditional, fh)
		if err != nil {
			h.uploadError(w, r, err)
			return
		}
		p.AdditionalImages = append(p.AdditionalImages, path)
	}

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Product images updated successfully", httpx.M{"product": p})
}

// UpdateMainImage 替换主图（multipart 表单，仅创建者或超级管理员）
//
// 路由: PUT /api/products/{id}/main-image
func (h *Handler) UpdateMainImage(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !admin.CanMutate(p.CreatedByID) {
		httpx.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	mainImages := formFiles(r, "mainImage")
	if len(mainImages) == 0 {
		httpx.Error(w, http.StatusBadRequest, "mainImage is required")
		return
	}

	newPath, err := h.uploads.Save(r.Context(), upload.KindProductMain, mainImages[0])
	if err != nil {
		h.uploadError(w, r, err)
		return
	}
	h.removeQuiet(r, p.MainImage)
	p.MainImage = newPath

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Product main image updated successfully", httpx.M{"product": p})
}

// Delete 软删除产品（仅创建者或超级管理员）
//
// 路由: DELETE /api/products/{id}
//
// 图片文件保留，便于误删恢复。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !admin.CanMutate(p.CreatedByID) {
		httpx.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	if err := h.store.SoftDeleteProduct(r.Context(), p.ID); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[product] Deleted: %s (%s) by %s", p.ProductName, p.ID, admin.ID)
	httpx.OK(w, http.StatusOK, "Product deleted successfully", nil)
}

// lookup 取路径中的产品；不存在或已软删除按 404 处理
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.Product, bool) {
	p, err := h.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Internal(w, r, err)
		return nil, false
	}
	if p == nil || !p.IsActive {
		httpx.Error(w, http.StatusNotFound, "Product not found")
		return nil, false
	}
	return p, true
}

// uploadError 上传失败：校验类错误 → 400，其余 → 500
func (h *Handler) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, upload.ErrFileType) || errors.Is(err, upload.ErrFileTooLarge) {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.Internal(w, r, err)
}

// removeQuiet 清理旧图片；失败只记日志，不阻塞请求
func (h *Handler) removeQuiet(r *http.Request, path string) {
	if path == "" {
		return
	}
	if err := h.uploads.Remove(r.Context(), path); err != nil {
		log.Printf("[product] remove old image %s failed: %v", path, err)
	}
}

func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

// parsePrice 空值视为未设置
func parsePrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.New("invalid price")
	}
	return &v, nil
}
