package idcard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
	"company-admin/internal/shared/upload"
)

// fakeStore 内存实现，员工证 + 引用校验用的部门/职位
type fakeStore struct {
	cards  map[string]*model.IdCard
	depts  map[string]*model.Department
	desigs map[string]*model.Designation
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		cards:  map[string]*model.IdCard{},
		depts:  map[string]*model.Department{},
		desigs: map[string]*model.Designation{},
	}
	s.depts["dept-1"] = &model.Department{ID: "dept-1", Name: "Engineering", Code: "ENG", IsActive: true}
	s.desigs["desig-1"] = &model.Designation{ID: "desig-1", Title: "Engineer", Level: 3, DepartmentID: "dept-1", IsActive: true}
	return s
}

func (s *fakeStore) CreateIdCard(_ context.Context, c *model.IdCard) error {
	for _, e := range s.cards {
		if e.Email == c.Email || e.IdCardNumber == c.IdCardNumber {
			return storage.ErrDuplicate
		}
	}
	cp := *c
	s.cards[c.ID] = &cp
	return nil
}

func (s *fakeStore) GetIdCard(_ context.Context, id string) (*model.IdCard, error) {
	if c, ok := s.cards[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) GetIdCardByNumber(_ context.Context, number string) (*model.IdCard, error) {
	for _, c := range s.cards {
		if c.IdCardNumber == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetIdCardByEmail(_ context.Context, email string) (*model.IdCard, error) {
	for _, c := range s.cards {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateIdCard(_ context.Context, c *model.IdCard) error {
	stored, ok := s.cards[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	*stored = *c
	return nil
}

func (s *fakeStore) SoftDeleteIdCard(_ context.Context, id string) error {
	stored, ok := s.cards[id]
	if !ok {
		return storage.ErrNotFound
	}
	stored.IsActive = false
	return nil
}

func (s *fakeStore) ListIdCards(_ context.Context, opts storage.ListOptions) ([]*model.IdCard, int64, error) {
	var out []*model.IdCard
	for _, c := range s.cards {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) IdCardStats(_ context.Context) (*storage.IdCardStats, error) {
	return &storage.IdCardStats{}, nil
}

func (s *fakeStore) GetDepartment(_ context.Context, id string) (*model.Department, error) {
	if d, ok := s.depts[id]; ok {
		return d, nil
	}
	return nil, nil
}

func (s *fakeStore) GetDesignation(_ context.Context, id string) (*model.Designation, error) {
	if d, ok := s.desigs[id]; ok {
		return d, nil
	}
	return nil, nil
}

// fakeUploads 只记录路径，不落盘
type fakeUploads struct {
	saved   []string
	removed []string
}

func (u *fakeUploads) Save(_ context.Context, kind upload.Kind, fh *multipart.FileHeader) (string, error) {
	path := fmt.Sprintf("/uploads/%s/%s", kind, fh.Filename)
	u.saved = append(u.saved, path)
	return path, nil
}

func (u *fakeUploads) Remove(_ context.Context, path string) error {
	u.removed = append(u.removed, path)
	return nil
}

var (
	creator = &model.Admin{ID: "adm-creator", FullName: "Creator", Role: model.RoleAdmin, IsActive: true}
	other   = &model.Admin{ID: "adm-other", FullName: "Other", Role: model.RoleAdmin, IsActive: true}
)

// validForm 合法的创建表单字段
func validForm() map[string]string {
	return map[string]string{
		"employeeType":  "full-time",
		"fullName":      "Asha Verma",
		"address":       `{"street":"12 MG Road","city":"Bengaluru","state":"KA","zipCode":"560001"}`,
		"bloodGroup":    "O+",
		"mobileNumber":  "+91 98765 43210",
		"email":         "Asha.Verma@Example.com",
		"dateOfBirth":   "1994-03-15",
		"dateOfJoining": "2024-01-02",
		"department":    "dept-1",
		"designation":   "desig-1",
	}
}

// doMultipart 构造带 employeePicture 文件的 multipart 请求
func doMultipart(t *testing.T, fn http.HandlerFunc, fields map[string]string, withFile bool, pathValues map[string]string, admin *model.Admin) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if withFile {
		fw, err := mw.CreateFormFile("employeePicture", "photo.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("not-really-a-png"))
	}
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/id-cards", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range pathValues {
		r.SetPathValue(k, v)
	}
	if admin != nil {
		r = r.WithContext(auth.WithAdmin(r.Context(), admin))
	}
	w := httptest.NewRecorder()
	fn(w, r)
	return w
}

func doJSON(t *testing.T, fn http.HandlerFunc, pathValues map[string]string, admin *model.Admin, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	r := httptest.NewRequest(http.MethodPut, "/api/id-cards", &buf)
	for k, v := range pathValues {
		r.SetPathValue(k, v)
	}
	if admin != nil {
		r = r.WithContext(auth.WithAdmin(r.Context(), admin))
	}
	w := httptest.NewRecorder()
	fn(w, r)
	return w
}

func seedCard(s *fakeStore) *model.IdCard {
	c := &model.IdCard{
		ID: "card-1", IdCardNumber: "EMP123456780001",
		EmployeeType: model.EmployeeFullTime, FullName: "Asha Verma",
		EmployeePicture: "/uploads/employees/pictures/old.png",
		Address:         model.Address{Street: "12 MG Road", City: "Bengaluru", Country: "India"},
		BloodGroup:      "O+", MobileNumber: "+91 98765 43210", Email: "asha.verma@example.com",
		DateOfBirth: time.Date(1994, 3, 15, 0, 0, 0, 0, time.UTC), DateOfJoining: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		DepartmentID: "dept-1", DesignationID: "desig-1",
		IsActive: true, CreatedByID: creator.ID,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	// 存独立副本，调用方改返回值不影响存量记录
	cp := *c
	s.cards[c.ID] = &cp
	return c
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploads{}
	h := NewHandler(store, uploads)

	w := doMultipart(t, h.Create, validForm(), true, nil, creator)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var created *model.IdCard
	for _, c := range store.cards {
		created = c
	}
	if created == nil {
		t.Fatal("id card not stored")
	}
	if !strings.HasPrefix(created.IdCardNumber, "EMP") {
		t.Errorf("IdCardNumber = %q, want EMP prefix", created.IdCardNumber)
	}
	// 邮箱统一小写
	if created.Email != "asha.verma@example.com" {
		t.Errorf("Email = %q", created.Email)
	}
	// 地址未带国家时默认 India
	if created.Address.Country != "India" {
		t.Errorf("Country = %q, want India", created.Address.Country)
	}
	if len(uploads.saved) != 1 {
		t.Errorf("saved = %v, want one picture", uploads.saved)
	}
}

func TestCreate_MissingPicture(t *testing.T) {
	h := NewHandler(newFakeStore(), &fakeUploads{})

	w := doMultipart(t, h.Create, validForm(), false, nil, creator)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreate_Validation(t *testing.T) {
	h := NewHandler(newFakeStore(), &fakeUploads{})

	form := validForm()
	form["employeeType"] = "freelance"
	form["bloodGroup"] = "Z+"
	form["dateOfBirth"] = "2099-01-01" // 未来日期
	form["address"] = "not json"

	w := doMultipart(t, h.Create, form, true, nil, creator)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var env httpx.Envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	if len(env.Errors) < 4 {
		t.Errorf("Errors = %v, want all four violations reported", env.Errors)
	}
	// 顶层 message 取第一条违规，完整列表随 errors 返回
	if len(env.Errors) == 0 || env.Message != env.Errors[0] {
		t.Errorf("Message = %q, want first of %v", env.Message, env.Errors)
	}
	if !strings.HasPrefix(env.Message, "employeeType must be one of") {
		t.Errorf("Message = %q", env.Message)
	}

	// 姓名长度上限 50
	form = validForm()
	form["fullName"] = strings.Repeat("x", 51)
	w = doMultipart(t, h.Create, form, true, nil, creator)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("long name: status = %d", w.Code)
	}
	env = httpx.Envelope{}
	json.Unmarshal(w.Body.Bytes(), &env)
	if env.Message != "fullName must be between 2 and 50 characters" {
		t.Errorf("Message = %q", env.Message)
	}
}

func TestCreate_AddressFields(t *testing.T) {
	h := NewHandler(newFakeStore(), &fakeUploads{})

	// 地址缺 state/zipCode → 400
	form := validForm()
	form["address"] = `{"street":"12 MG Road","city":"Bengaluru"}`
	w := doMultipart(t, h.Create, form, true, nil, creator)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var env httpx.Envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	if env.Message != "address.state is required" {
		t.Errorf("Message = %q, want address.state is required", env.Message)
	}
	if len(env.Errors) != 2 {
		t.Errorf("Errors = %v, want state and zipCode violations", env.Errors)
	}
}

func TestCreate_InvalidRefs(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, &fakeUploads{})

	form := validForm()
	form["department"] = "dept-missing"
	if w := doMultipart(t, h.Create, form, true, nil, creator); w.Code != http.StatusBadRequest {
		t.Errorf("missing dept: status = %d, want 400", w.Code)
	}

	// 软删除的职位同样拒绝
	store.desigs["desig-1"].IsActive = false
	form = validForm()
	w := doMultipart(t, h.Create, form, true, nil, creator)
	if w.Code != http.StatusBadRequest {
		t.Errorf("inactive designation: status = %d, want 400", w.Code)
	}
	var env httpx.Envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	if env.Message != "Invalid designation" {
		t.Errorf("Message = %q, want Invalid designation", env.Message)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	seedCard(store)
	h := NewHandler(store, &fakeUploads{})

	w := doMultipart(t, h.Create, validForm(), true, nil, creator)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetByNumber(t *testing.T) {
	store := newFakeStore()
	c := seedCard(store)
	h := NewHandler(store, &fakeUploads{})

	// 大小写不敏感：查询前统一大写
	lower := map[string]string{"idCardNumber": strings.ToLower(c.IdCardNumber)}
	if w := doJSON(t, h.GetByNumber, lower, creator, nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	missing := map[string]string{"idCardNumber": "EMP000000000000"}
	if w := doJSON(t, h.GetByNumber, missing, creator, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
}

func TestUpdate(t *testing.T) {
	store := newFakeStore()
	c := seedCard(store)
	h := NewHandler(store, &fakeUploads{})

	body := map[string]interface{}{
		"employeeType": "contract", "fullName": "Asha V",
		"address":      map[string]string{"street": "12 MG Road", "city": "Bengaluru", "state": "KA", "zipCode": "560001"},
		"bloodGroup":   "O+", "mobileNumber": "+91 98765 43210",
		"email":        "asha.verma@example.com",
		"dateOfBirth":  "1994-03-15", "dateOfJoining": "2024-01-02",
		"department":   "dept-1", "designation": "desig-1",
	}

	// 员工证不做归属限制：非创建者的管理员也能更新
	if w := doJSON(t, h.Update, map[string]string{"id": c.ID}, other, body); w.Code != http.StatusOK {
		t.Errorf("other admin: status = %d, body = %s", w.Code, w.Body.String())
	}
	if store.cards[c.ID].EmployeeType != model.EmployeeContract {
		t.Errorf("EmployeeType = %q after update", store.cards[c.ID].EmployeeType)
	}

	// 换成已被占用的邮箱 → 400
	second := *c
	second.ID, second.Email, second.IdCardNumber = "card-2", "taken@example.com", "EMP999999990000"
	store.cards[second.ID] = &second
	body["email"] = "taken@example.com"
	if w := doJSON(t, h.Update, map[string]string{"id": c.ID}, creator, body); w.Code != http.StatusBadRequest {
		t.Errorf("taken email: status = %d, want 400", w.Code)
	}
	// 第二张卡的加入不改变第一张的存量记录
	if store.cards[c.ID].Email != "asha.verma@example.com" {
		t.Errorf("card-1 email = %q, want unchanged", store.cards[c.ID].Email)
	}
}

func TestUpdate_Partial(t *testing.T) {
	store := newFakeStore()
	c := seedCard(store)
	h := NewHandler(store, &fakeUploads{})

	// 只提交 fullName，其余字段与引用保持不变
	w := doJSON(t, h.Update, map[string]string{"id": c.ID}, creator, map[string]interface{}{
		"fullName": "Asha V",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	got := store.cards[c.ID]
	if got.FullName != "Asha V" {
		t.Errorf("FullName = %q", got.FullName)
	}
	if got.Email != "asha.verma@example.com" || got.DepartmentID != "dept-1" || got.BloodGroup != "O+" {
		t.Errorf("untouched fields changed: %+v", got)
	}

	// 提交的引用失活 → 400，未提交的引用不校验
	store.depts["dept-1"].IsActive = false
	if w := doJSON(t, h.Update, map[string]string{"id": c.ID}, creator, map[string]interface{}{
		"fullName": "Asha Verma",
	}); w.Code != http.StatusOK {
		t.Errorf("no ref in payload: status = %d, want 200", w.Code)
	}
	if w := doJSON(t, h.Update, map[string]string{"id": c.ID}, creator, map[string]interface{}{
		"department": "dept-1",
	}); w.Code != http.StatusBadRequest {
		t.Errorf("inactive dept in payload: status = %d, want 400", w.Code)
	}
}

func TestUpdatePicture(t *testing.T) {
	store := newFakeStore()
	c := seedCard(store)
	uploads := &fakeUploads{}
	h := NewHandler(store, uploads)

	w := doMultipart(t, h.UpdatePicture, nil, true, map[string]string{"id": c.ID}, creator)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// 旧照片被清理
	if len(uploads.removed) != 1 || uploads.removed[0] != "/uploads/employees/pictures/old.png" {
		t.Errorf("removed = %v", uploads.removed)
	}
	if store.cards[c.ID].EmployeePicture == "/uploads/employees/pictures/old.png" {
		t.Error("picture not replaced")
	}
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	c := seedCard(store)
	h := NewHandler(store, &fakeUploads{})

	// 删除同样不限创建者
	if w := doJSON(t, h.Delete, map[string]string{"id": c.ID}, other, nil); w.Code != http.StatusOK {
		t.Errorf("other admin: status = %d, want 200", w.Code)
	}
	// 软删除后详情与证号查询都按 404 处理
	if w := doJSON(t, h.Get, map[string]string{"id": c.ID}, creator, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
	if w := doJSON(t, h.GetByNumber, map[string]string{"idCardNumber": c.IdCardNumber}, creator, nil); w.Code != http.StatusNotFound {
		t.Errorf("number after delete: status = %d, want 404", w.Code)
	}
}
