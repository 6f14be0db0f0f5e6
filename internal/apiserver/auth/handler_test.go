package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"company-admin/internal/apiserver/httpx"
	"company-admin/internal/shared/model"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (body=%s)", err, w.Body.String())
	}
	return env
}

func TestSignup(t *testing.T) {
	store := newFakeAdminStore()
	h := NewHandler(store, testSecret)

	w := postJSON(t, h.Signup, "/api/admin/signup", map[string]string{
		"fullName": "Alex Doe",
		"email":    "Alex@Example.COM",
		"password": "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}

	// 邮箱小写落库
	created, _ := store.GetAdminByEmail(t.Context(), "alex@example.com")
	if created == nil {
		t.Fatal("admin not created with normalized email")
	}
	if created.Role != model.RoleAdmin || !created.IsActive {
		t.Errorf("created = %+v", created)
	}
	if created.PasswordHash == "secret1" {
		t.Error("password must be hashed")
	}

	// 令牌可直接使用
	data := env.Data.(map[string]interface{})
	token, _ := data["token"].(string)
	if claims, err := ParseToken(testSecret, token); err != nil || claims.Subject != created.ID {
		t.Errorf("token claims = %+v, err = %v", claims, err)
	}
}

func TestSignup_Validation(t *testing.T) {
	h := NewHandler(newFakeAdminStore(), testSecret)

	w := postJSON(t, h.Signup, "/api/admin/signup", map[string]string{
		"fullName": "",
		"email":    "not-an-email",
		"password": "123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if len(env.Errors) < 3 {
		t.Errorf("Errors = %v, want all field errors reported at once", env.Errors)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	existing := testAdmin()
	h := NewHandler(newFakeAdminStore(existing), testSecret)

	w := postJSON(t, h.Signup, "/api/admin/signup", map[string]string{
		"fullName": "Other",
		"email":    existing.Email,
		"password": "secret1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, _ := HashPassword("correct-pass")
	admin := testAdmin()
	admin.PasswordHash = hash
	store := newFakeAdminStore(admin)
	h := NewHandler(store, testSecret)

	w := postJSON(t, h.Login, "/api/admin/login", map[string]string{
		"email":    admin.Email,
		"password": "correct-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// last_login 已更新
	got, _ := store.GetAdminByID(t.Context(), admin.ID)
	if got.LastLogin == nil {
		t.Error("LastLogin should be set after login")
	}

	// 密码错误与账号不存在返回同一错误
	w = postJSON(t, h.Login, "/api/admin/login", map[string]string{
		"email": admin.Email, "password": "wrong",
	})
	wrongPass := decodeEnvelope(t, w)
	w2 := postJSON(t, h.Login, "/api/admin/login", map[string]string{
		"email": "ghost@example.com", "password": "wrong",
	})
	noAccount := decodeEnvelope(t, w2)
	if w.Code != http.StatusUnauthorized || w2.Code != http.StatusUnauthorized {
		t.Errorf("statuses = %d/%d, want 401/401", w.Code, w2.Code)
	}
	if wrongPass.Message != noAccount.Message {
		t.Errorf("messages differ (%q vs %q), enables email enumeration", wrongPass.Message, noAccount.Message)
	}
}

func TestLogin_Deactivated(t *testing.T) {
	hash, _ := HashPassword("correct-pass")
	admin := testAdmin()
	admin.PasswordHash = hash
	admin.IsActive = false
	h := NewHandler(newFakeAdminStore(admin), testSecret)

	w := postJSON(t, h.Login, "/api/admin/login", map[string]string{
		"email": admin.Email, "password": "correct-pass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if env := decodeEnvelope(t, w); !strings.Contains(env.Message, "deactivated") {
		t.Errorf("Message = %q", env.Message)
	}
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	a := testAdmin()
	b := &model.Admin{ID: "adm-2", Email: "taken@example.com", IsActive: true}
	h := NewHandler(newFakeAdminStore(a, b), testSecret)

	body, _ := json.Marshal(map[string]string{"fullName": "Alex", "email": "taken@example.com"})
	r := httptest.NewRequest(http.MethodPut, "/api/admin/profile", bytes.NewReader(body))
	r = r.WithContext(WithAdmin(r.Context(), a))
	w := httptest.NewRecorder()
	h.UpdateProfile(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChangePassword(t *testing.T) {
	hash, _ := HashPassword("old-pass")
	admin := testAdmin()
	admin.PasswordHash = hash
	store := newFakeAdminStore(admin)
	h := NewHandler(store, testSecret)

	do := func(current, next string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"currentPassword": current, "newPassword": next})
		r := httptest.NewRequest(http.MethodPut, "/api/admin/change-password", bytes.NewReader(body))
		r = r.WithContext(WithAdmin(r.Context(), admin))
		w := httptest.NewRecorder()
		h.ChangePassword(w, r)
		return w
	}

	if w := do("wrong-pass", "new-pass"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password: status = %d, want 401", w.Code)
	}
	if w := do("old-pass", "123"); w.Code != http.StatusBadRequest {
		t.Errorf("short new password: status = %d, want 400", w.Code)
	}
	if w := do("old-pass", "new-pass"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	got, _ := store.GetAdminByID(t.Context(), admin.ID)
	if !CheckPassword("new-pass", got.PasswordHash) {
		t.Error("new password should verify after change")
	}
}

func TestEnsureSuperAdmin(t *testing.T) {
	store := newFakeAdminStore()

	if err := EnsureSuperAdmin(store, "root@example.com", "bootstrap-pass"); err != nil {
		t.Fatalf("EnsureSuperAdmin: %v", err)
	}
	created, _ := store.GetAdminByEmail(t.Context(), "root@example.com")
	if created == nil || created.Role != model.RoleSuperAdmin {
		t.Fatalf("created = %+v, want super_admin", created)
	}

	// 幂等：重复调用不再创建
	if err := EnsureSuperAdmin(store, "root@example.com", "bootstrap-pass"); err != nil {
		t.Fatalf("EnsureSuperAdmin(again): %v", err)
	}
	if len(store.admins) != 1 {
		t.Errorf("admins = %d, want 1", len(store.admins))
	}

	// 未配置时跳过
	if err := EnsureSuperAdmin(store, "", ""); err != nil {
		t.Errorf("empty config should be a no-op, got %v", err)
	}
}
