package department

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"company-admin/internal/apiserver/auth"
	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/shared/model"
	"company-admin/internal/shared/storage"
)

// fakeStore 内存 DepartmentStore
type fakeStore struct {
	depts map[string]*model.Department
}

func newFakeStore() *fakeStore {
	return &fakeStore{depts: map[string]*model.Department{}}
}

func (s *fakeStore) CreateDepartment(_ context.Context, d *model.Department) error {
	for _, e := range s.depts {
		if e.Name == d.Name || e.Code == d.Code {
			return storage.ErrDuplicate
		}
	}
	cp := *d
	s.depts[d.ID] = &cp
	return nil
}

func (s *fakeStore) GetDepartment(_ context.Context, id string) (*model.Department, error) {
	if d, ok := s.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) GetDepartmentByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range s.depts {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetDepartmentByCode(_ context.Context, code string) (*model.Department, error) {
	for _, d := range s.depts {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateDepartment(_ context.Context, d *model.Department) error {
	stored, ok := s.depts[d.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Name, stored.Code, stored.Description = d.Name, d.Code, d.Description
	return nil
}

func (s *fakeStore) SoftDeleteDepartment(_ context.Context, id string) error {
	stored, ok := s.depts[id]
	if !ok {
		return storage.ErrNotFound
	}
	stored.IsActive = false
	return nil
}

func (s *fakeStore) ListDepartments(_ context.Context, opts storage.ListOptions) ([]*model.Department, int64, error) {
	var out []*model.Department
	for _, d := range s.depts {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) ListActiveDepartments(_ context.Context) ([]*model.DepartmentRef, error) {
	var out []*model.DepartmentRef
	for _, d := range s.depts {
		if d.IsActive {
			out = append(out, &model.DepartmentRef{ID: d.ID, Name: d.Name, Code: d.Code})
		}
	}
	return out, nil
}

var (
	creator = &model.Admin{ID: "adm-creator", FullName: "Creator", Role: model.RoleAdmin, IsActive: true}
	other   = &model.Admin{ID: "adm-other", FullName: "Other", Role: model.RoleAdmin, IsActive: true}
	super   = &model.Admin{ID: "adm-super", FullName: "Super", Role: model.RoleSuperAdmin, IsActive: true}
)

func seed(s *fakeStore) *model.Department {
	d := &model.Department{
		ID: "dept-1", Name: "Engineering", Code: "ENG",
		IsActive: true, CreatedByID: creator.ID,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.depts[d.ID] = d
	return d
}

func doJSON(t *testing.T, fn http.HandlerFunc, method, id string, admin *model.Admin, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	r := httptest.NewRequest(method, "/api/departments", &buf)
	if id != "" {
		r.SetPathValue("id", id)
	}
	if admin != nil {
		r = r.WithContext(auth.WithAdmin(r.Context(), admin))
	}
	w := httptest.NewRecorder()
	fn(w, r)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v (body=%s)", err, w.Body.String())
	}
	return env
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store)

	w := doJSON(t, h.Create, http.MethodPost, "", creator, map[string]string{
		"name": "Engineering", "code": "eng", "description": "Builds things",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var created *model.Department
	for _, d := range store.depts {
		created = d
	}
	if created == nil {
		t.Fatal("department not stored")
	}
	// 编码统一大写
	if created.Code != "ENG" {
		t.Errorf("Code = %q, want ENG", created.Code)
	}
	if created.CreatedByID != creator.ID || !created.IsActive {
		t.Errorf("created = %+v", created)
	}
}

func TestCreate_Validation(t *testing.T) {
	h := NewHandler(newFakeStore())

	w := doJSON(t, h.Create, http.MethodPost, "", creator, map[string]string{
		"name": "", "code": "TOOLONGCODE123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if env := envelope(t, w); len(env.Errors) < 2 {
		t.Errorf("Errors = %v", env.Errors)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	store := newFakeStore()
	seed(store)
	h := NewHandler(store)

	// 重名
	w := doJSON(t, h.Create, http.MethodPost, "", creator, map[string]string{
		"name": "Engineering", "code": "NEW",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate name: status = %d, want 400", w.Code)
	}

	// 编码重复（大小写不敏感，输入会被大写化）
	w = doJSON(t, h.Create, http.MethodPost, "", creator, map[string]string{
		"name": "Other Dept", "code": "eng",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate code: status = %d, want 400", w.Code)
	}
}

func TestGet_NotFoundAndSoftDeleted(t *testing.T) {
	store := newFakeStore()
	d := seed(store)
	h := NewHandler(store)

	if w := doJSON(t, h.Get, http.MethodGet, "missing", creator, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}

	// 软删除后按 404 处理
	store.depts[d.ID].IsActive = false
	if w := doJSON(t, h.Get, http.MethodGet, d.ID, creator, nil); w.Code != http.StatusNotFound {
		t.Errorf("soft-deleted: status = %d, want 404", w.Code)
	}
}

func TestUpdate(t *testing.T) {
	store := newFakeStore()
	d := seed(store)
	h := NewHandler(store)
	body := map[string]string{"name": "Platform", "code": "PLT"}

	// 部门不做归属限制：非创建者的普通管理员也能更新
	if w := doJSON(t, h.Update, http.MethodPut, d.ID, other, body); w.Code != http.StatusOK {
		t.Errorf("other admin: status = %d, want 200", w.Code)
	}
	if store.depts[d.ID].Name != "Platform" {
		t.Errorf("Name = %q after update", store.depts[d.ID].Name)
	}

	body = map[string]string{"name": "Platform Eng", "code": "PLT"}
	if w := doJSON(t, h.Update, http.MethodPut, d.ID, super, body); w.Code != http.StatusOK {
		t.Errorf("super admin: status = %d", w.Code)
	}
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	d := seed(store)
	h := NewHandler(store)

	// 删除同样不限创建者
	if w := doJSON(t, h.Delete, http.MethodDelete, d.ID, other, nil); w.Code != http.StatusOK {
		t.Errorf("other admin: status = %d, want 200", w.Code)
	}
	if store.depts[d.ID].IsActive {
		t.Error("department should be soft-deleted")
	}

	// 二次删除：已软删除 → 404
	if w := doJSON(t, h.Delete, http.MethodDelete, d.ID, creator, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", w.Code)
	}
}

func TestList(t *testing.T) {
	store := newFakeStore()
	seed(store)
	h := NewHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/api/departments?page=1&limit=10", nil)
	r = r.WithContext(auth.WithAdmin(r.Context(), creator))
	w := httptest.NewRecorder()
	h.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	env := envelope(t, w)
	data := env.Data.(map[string]interface{})
	if _, ok := data["pagination"]; !ok {
		t.Error("list response must carry a pagination block")
	}
}
