// Package idcard 员工证管理接口
//
// 创建与证件照更新走 multipart（employeePicture 文件 + 文本字段），
// 其余更新为 JSON。证号由服务端生成，不接受客户端指定。
package idcard

import (
	"context"
	"encoding/json"
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
	"company-admin/internal/shared/upload"
)

const maxFormMemory = 32 << 20

// Store 员工证处理器依赖：员工证存取 + 部门/职位引用校验
type Store interface {
	storage.IdCardStore
	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	GetDesignation(ctx context.Context, id string) (*model.Designation, error)
}

// Handler 员工证 HTTP 处理器
type Handler struct {
	store   Store
	uploads upload.Store
}

// NewHandler 创建员工证处理器
func NewHandler(store Store, uploads upload.Store) *Handler {
	return &Handler{store: store, uploads: uploads}
}

// RegisterRoutes 注册员工证相关路由（全部需要认证）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("POST /api/id-cards", mw.Require(h.Create))
	mux.HandleFunc("GET /api/id-cards", mw.Require(h.List))
	mux.HandleFunc("GET /api/id-cards/stats/overview", mw.Require(h.Stats))
	mux.HandleFunc("GET /api/id-cards/number/{idCardNumber}", mw.Require(h.GetByNumber))
	mux.HandleFunc("GET /api/id-cards/{id}", mw.Require(h.Get))
	mux.HandleFunc("PUT /api/id-cards/{id}", mw.Require(h.Update))
	mux.HandleFunc("PUT /api/id-cards/{id}/picture", mw.Require(h.UpdatePicture))
	mux.HandleFunc("DELETE /api/id-cards/{id}", mw.Require(h.Delete))
}

// idCardFields 创建表单的文本字段
type idCardFields struct {
	EmployeeType  string
	FullName      string
	Address       string // JSON 对象字符串
	BloodGroup    string
	MobileNumber  string
	Email         string
	DateOfBirth   string
	DateOfJoining string
	Department    string
	Designation   string
}

func fieldsFromForm(r *http.Request) idCardFields {
	return idCardFields{
		EmployeeType:  strings.TrimSpace(r.FormValue("employeeType")),
		FullName:      strings.TrimSpace(r.FormValue("fullName")),
		Address:       r.FormValue("address"),
		BloodGroup:    strings.TrimSpace(r.FormValue("bloodGroup")),
		MobileNumber:  strings.TrimSpace(r.FormValue("mobileNumber")),
		Email:         validate.NormalizeEmail(r.FormValue("email")),
		DateOfBirth:   strings.TrimSpace(r.FormValue("dateOfBirth")),
		DateOfJoining: strings.TrimSpace(r.FormValue("dateOfJoining")),
		Department:    strings.TrimSpace(r.FormValue("department")),
		Designation:   strings.TrimSpace(r.FormValue("designation")),
	}
}

// parsed 校验通过后的结构化字段
type parsedFields struct {
	EmployeeType  model.EmployeeType
	FullName      string
	Address       model.Address
	BloodGroup    model.BloodGroup
	MobileNumber  string
	Email         string
	DateOfBirth   time.Time
	DateOfJoining time.Time
	DepartmentID  string
	DesignationID string
}

func (f idCardFields) parse() (parsedFields, validate.Errors) {
	var errs validate.Errors

	errs.Required("fullName", f.FullName)
	errs.Length("fullName", f.FullName, 2, 50)
	errs.Required("email", f.Email)
	errs.Email("email", f.Email)
	errs.Required("mobileNumber", f.MobileNumber)
	errs.Mobile("mobileNumber", f.MobileNumber)
	errs.Required("department", f.Department)
	errs.Required("designation", f.Designation)

	p := parsedFields{
		FullName:      f.FullName,
		MobileNumber:  f.MobileNumber,
		Email:         validate.NormalizeEmail(f.Email),
		DepartmentID:  f.Department,
		DesignationID: f.Designation,
	}

	p.EmployeeType = model.EmployeeType(f.EmployeeType)
	if !p.EmployeeType.Valid() {
		errs.Add("employeeType must be one of: %s", joinEmployeeTypes())
	}
	p.BloodGroup = model.BloodGroup(f.BloodGroup)
	if !p.BloodGroup.Valid() {
		errs.Add("bloodGroup must be a valid blood group")
	}

	if errs.Required("dateOfBirth", f.DateOfBirth) {
		dob, err := validate.ParseDate(f.DateOfBirth)
		if err != nil {
			errs.Add("dateOfBirth must be a valid date")
		} else {
			p.DateOfBirth = dob
			errs.NotFuture("dateOfBirth", dob)
		}
	}
	if errs.Required("dateOfJoining", f.DateOfJoining) {
		doj, err := validate.ParseDate(f.DateOfJoining)
		if err != nil {
			errs.Add("dateOfJoining must be a valid date")
		} else {
			p.DateOfJoining = doj
			errs.NotFuture("dateOfJoining", doj)
		}
	}

	if addr, err := parseAddress(f.Address); err != nil {
		errs.Add("address must be a valid address object")
	} else {
		p.Address = addr
	}
	if p.Address.Country == "" {
		p.Address.Country = "India"
	}
	errs.Required("address.street", p.Address.Street)
	errs.Required("address.city", p.Address.City)
	errs.Required("address.state", p.Address.State)
	errs.Required("address.zipCode", p.Address.ZipCode)

	return p, errs
}

// parseAddress multipart 下地址以 JSON 对象字符串传入
func parseAddress(raw string) (model.Address, error) {
	var addr model.Address
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return addr, errors.New("empty address")
	}
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return addr, err
	}
	return addr, nil
}

func joinEmployeeTypes() string {
	parts := make([]string, len(model.EmployeeTypes))
	for i, t := range model.EmployeeTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
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

// checkDesignation 引用的职位必须存在且处于激活状态
func (h *Handler) checkDesignation(w http.ResponseWriter, r *http.Request, id string) bool {
	desig, err := h.store.GetDesignation(r.Context(), id)
	if err != nil {
		httpx.Internal(w, r, err)
		return false
	}
	if desig == nil || !desig.IsActive {
		httpx.Error(w, http.StatusBadRequest, "Invalid designation")
		return false
	}
	return true
}

// checkRefs 创建路径：两个引用都必填
func (h *Handler) checkRefs(w http.ResponseWriter, r *http.Request, departmentID, designationID string) bool {
	return h.checkDepartment(w, r, departmentID) && h.checkDesignation(w, r, designationID)
}

// Create 创建员工证（multipart 表单，employeePicture 文件必填）
//
// 路由: POST /api/id-cards
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	p, errs := fieldsFromForm(r).parse()

	pictures := r.MultipartForm.File["employeePicture"]
	if len(pictures) == 0 {
		errs.Add("employeePicture is required")
	}
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}
	if !h.checkRefs(w, r, p.DepartmentID, p.DesignationID) {
		return
	}

	if existing, err := h.store.GetIdCardByEmail(r.Context(), p.Email); err != nil {
		httpx.Internal(w, r, err)
		return
	} else if existing != nil {
		httpx.Error(w, http.StatusBadRequest, "Employee with this email already exists")
		return
	}

	picturePath, err := h.uploads.Save(r.Context(), upload.KindEmployeePicture, pictures[0])
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	now := time.Now()
	card := &model.IdCard{
		ID:              model.NewID("card"),
		IdCardNumber:    model.NewIdCardNumber(now),
		EmployeeType:    p.EmployeeType,
		FullName:        p.FullName,
		EmployeePicture: picturePath,
		Address:         p.Address,
		BloodGroup:      p.BloodGroup,
		MobileNumber:    p.MobileNumber,
		Email:           p.Email,
		DateOfBirth:     p.DateOfBirth,
		DateOfJoining:   p.DateOfJoining,
		DepartmentID:    p.DepartmentID,
		DesignationID:   p.DesignationID,
		IsActive:        true,
		CreatedByID:     admin.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.store.CreateIdCard(r.Context(), card); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Email or ID card number already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[idcard] Created: %s (%s) by %s", card.FullName, card.IdCardNumber, admin.ID)
	httpx.OK(w, http.StatusCreated, "ID card created successfully", httpx.M{"idCard": card})
}

// List 员工证分页列表
//
// 路由: GET /api/id-cards?page=&limit=&search=&employeeType=&department=&designation=&bloodGroup=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := httpx.ParseListOptions(r, "employeeType", "department", "designation", "bloodGroup")

	cards, total, err := h.store.ListIdCards(r.Context(), opts)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "ID cards retrieved successfully", httpx.M{
		"idCards":    cards,
		"pagination": storage.NewPagination(opts, total),
	})
}

// Stats 员工证统计概览
//
// 路由: GET /api/id-cards/stats/overview
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.IdCardStats(r.Context())
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "ID card statistics retrieved successfully", httpx.M{"stats": stats})
}

// Get 员工证详情
//
// 路由: GET /api/id-cards/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, "ID card retrieved successfully", httpx.M{"idCard": card})
}

// GetByNumber 按证号查询（门禁/核验终端用）
//
// 路由: GET /api/id-cards/number/{idCardNumber}
func (h *Handler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := model.NormalizeIdCardNumber(r.PathValue("idCardNumber"))

	card, err := h.store.GetIdCardByNumber(r.Context(), number)
	if err != nil {
		httpx.Internal(w, r, err)
		return
	}
	if card == nil || !card.IsActive {
		httpx.Error(w, http.StatusNotFound, "ID card not found")
		return
	}
	httpx.OK(w, http.StatusOK, "ID card retrieved successfully", httpx.M{"idCard": card})
}

type updateIdCardRequest struct {
	EmployeeType  *string        `json:"employeeType"`
	FullName      *string        `json:"fullName"`
	Address       *model.Address `json:"address"`
	BloodGroup    *string        `json:"bloodGroup"`
	MobileNumber  *string        `json:"mobileNumber"`
	Email         *string        `json:"email"`
	DateOfBirth   *string        `json:"dateOfBirth"`
	DateOfJoining *string        `json:"dateOfJoining"`
	Department    *string        `json:"department"`
	Designation   *string        `json:"designation"`
}

// Update 更新员工证（JSON 体）
//
// 路由: PUT /api/id-cards/{id}
//
// 部分更新：指针字段缺省即保持不变，只校验提交的字段与引用。
// 证号不可变更；照片走 /picture 端点。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req updateIdCardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs validate.Errors
	if req.EmployeeType != nil {
		et := model.EmployeeType(strings.TrimSpace(*req.EmployeeType))
		if !et.Valid() {
			errs.Add("employeeType must be one of: %s", joinEmployeeTypes())
		}
		card.EmployeeType = et
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		errs.Required("fullName", name)
		errs.Length("fullName", name, 2, 50)
		card.FullName = name
	}
	if req.Address != nil {
		addr := *req.Address
		if addr.Country == "" {
			addr.Country = "India"
		}
		errs.Required("address.street", addr.Street)
		errs.Required("address.city", addr.City)
		errs.Required("address.state", addr.State)
		errs.Required("address.zipCode", addr.ZipCode)
		card.Address = addr
	}
	if req.BloodGroup != nil {
		bg := model.BloodGroup(strings.TrimSpace(*req.BloodGroup))
		if !bg.Valid() {
			errs.Add("bloodGroup must be a valid blood group")
		}
		card.BloodGroup = bg
	}
	if req.MobileNumber != nil {
		mobile := strings.TrimSpace(*req.MobileNumber)
		errs.Required("mobileNumber", mobile)
		errs.Mobile("mobileNumber", mobile)
		card.MobileNumber = mobile
	}
	newEmail := card.Email
	if req.Email != nil {
		newEmail = validate.NormalizeEmail(*req.Email)
		errs.Required("email", newEmail)
		errs.Email("email", newEmail)
	}
	if req.DateOfBirth != nil {
		dob, err := validate.ParseDate(*req.DateOfBirth)
		if err != nil {
			errs.Add("dateOfBirth must be a valid date")
		} else {
			errs.NotFuture("dateOfBirth", dob)
			card.DateOfBirth = dob
		}
	}
	if req.DateOfJoining != nil {
		doj, err := validate.ParseDate(*req.DateOfJoining)
		if err != nil {
			errs.Add("dateOfJoining must be a valid date")
		} else {
			errs.NotFuture("dateOfJoining", doj)
			card.DateOfJoining = doj
		}
	}
	if !errs.Ok() {
		httpx.Error(w, http.StatusBadRequest, errs.Message(), errs...)
		return
	}

	// 只校验提交的引用
	if req.Department != nil {
		if !h.checkDepartment(w, r, strings.TrimSpace(*req.Department)) {
			return
		}
		card.DepartmentID = strings.TrimSpace(*req.Department)
	}
	if req.Designation != nil {
		if !h.checkDesignation(w, r, strings.TrimSpace(*req.Designation)) {
			return
		}
		card.DesignationID = strings.TrimSpace(*req.Designation)
	}

	if newEmail != card.Email {
		if existing, err := h.store.GetIdCardByEmail(r.Context(), newEmail); err != nil {
			httpx.Internal(w, r, err)
			return
		} else if existing != nil {
			httpx.Error(w, http.StatusBadRequest, "Employee with this email already exists")
			return
		}
		card.Email = newEmail
	}

	card.Department = nil // 引用可能变化，交给读取路径回填
	card.Designation = nil
	if err := h.store.UpdateIdCard(r.Context(), card); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.Error(w, http.StatusBadRequest, "Employee with this email already exists")
			return
		}
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[idcard] Updated: %s (%s) by %s", card.FullName, card.IdCardNumber, admin.ID)
	httpx.OK(w, http.StatusOK, "ID card updated successfully", httpx.M{"idCard": card})
}

// UpdatePicture 更换证件照（multipart 表单）
//
// 路由: PUT /api/id-cards/{id}/picture
func (h *Handler) UpdatePicture(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	pictures := r.MultipartForm.File["employeePicture"]
	if len(pictures) == 0 {
		httpx.Error(w, http.StatusBadRequest, "employeePicture is required")
		return
	}

	newPath, err := h.uploads.Save(r.Context(), upload.KindEmployeePicture, pictures[0])
	if err != nil {
		h.uploadError(w, r, err)
		return
	}
	if card.EmployeePicture != "" {
		if err := h.uploads.Remove(r.Context(), card.EmployeePicture); err != nil {
			log.Printf("[idcard] remove old picture %s failed: %v", card.EmployeePicture, err)
		}
	}

	card.EmployeePicture = newPath
	if err := h.store.UpdateIdCard(r.Context(), card); err != nil {
		httpx.Internal(w, r, err)
		return
	}
	log.Printf("[idcard] Picture updated: %s by %s", card.IdCardNumber, admin.ID)
	httpx.OK(w, http.StatusOK, "Employee picture updated successfully", httpx.M{"idCard": card})
}

// Delete 软删除员工证
//
// 路由: DELETE /api/id-cards/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := auth.AdminFrom(r.Context())

	card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDeleteIdCard(r.Context(), card.ID); err != nil {
		httpx.Internal(w, r, err)
		return
	}

	log.Printf("[idcard] Deleted: %s (%s) by %s", card.FullName, card.IdCardNumber, admin.ID)
	httpx.OK(w, http.StatusOK, "ID card deleted successfully", nil)
}

// lookup 取路径中的员工证；不存在或已软删除按 404 处理
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.IdCard, bool) {
	card, err := h.store.GetIdCard(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Internal(w, r, err)
		return nil, false
	}
	if card == nil || !card.IsActive {
		httpx.Error(w, http.StatusNotFound, "ID card not found")
		return nil, false
	}
	return card, true
}

// uploadError 上传失败：校验类错误 → 400，其余 → 500
func (h *Handler) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, upload.ErrFileType) || errors.Is(err, upload.ErrFileTooLarge) {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.Internal(w, r, err)
}
