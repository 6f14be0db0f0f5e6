package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"company-admin/internal/shared/model"
)

// fakeAdminStore 内存实现，供 auth 包测试使用
type fakeAdminStore struct {
	mu     sync.Mutex
	admins map[string]*model.Admin // by ID
	err    error                   // 注入存储错误
}

func newFakeAdminStore(admins ...*model.Admin) *fakeAdminStore {
	s := &fakeAdminStore{admins: map[string]*model.Admin{}}
	for _, a := range admins {
		s.admins[a.ID] = a
	}
	return s
}

func (s *fakeAdminStore) GetAdminByID(_ context.Context, id string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.admins[id], nil
}

func (s *fakeAdminStore) GetAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, a := range s.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (s *fakeAdminStore) CreateAdmin(_ context.Context, admin *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.admins[admin.ID] = admin
	return nil
}

func (s *fakeAdminStore) UpdateAdminProfile(_ context.Context, id, fullName, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.admins[id]; a != nil {
		a.FullName, a.Email = fullName, email
	}
	return nil
}

func (s *fakeAdminStore) UpdateAdminPassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.admins[id]; a != nil {
		a.PasswordHash = hash
	}
	return nil
}

func (s *fakeAdminStore) UpdateAdminLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.admins[id]; a != nil {
		a.LastLogin = &at
	}
	return nil
}

const testSecret = "unit-test-secret"

func echoAdmin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if admin := AdminFrom(r.Context()); admin != nil {
			w.Write([]byte(admin.ID))
			return
		}
		w.Write([]byte("anonymous"))
	}
}

func TestRequire(t *testing.T) {
	admin := testAdmin()
	store := newFakeAdminStore(admin)
	mw := NewMiddleware(store, testSecret)
	handler := mw.Require(echoAdmin())

	token, err := GenerateToken(testSecret, admin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "adm-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc123", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/admin/profile", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequire_DeactivatedAdmin(t *testing.T) {
	admin := testAdmin()
	admin.IsActive = false
	mw := NewMiddleware(newFakeAdminStore(admin), testSecret)
	token, _ := GenerateToken(testSecret, admin)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Require(echoAdmin())(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for deactivated account", w.Code)
	}
}

func TestRequire_DeletedAdmin(t *testing.T) {
	// 令牌合法但账号已不存在
	admin := testAdmin()
	mw := NewMiddleware(newFakeAdminStore(), testSecret)
	token, _ := GenerateToken(testSecret, admin)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Require(echoAdmin())(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for deleted account", w.Code)
	}
}

func TestRequire_StoreError(t *testing.T) {
	admin := testAdmin()
	store := newFakeAdminStore(admin)
	store.err = errors.New("mongo down")
	mw := NewMiddleware(store, testSecret)
	token, _ := GenerateToken(testSecret, admin)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Require(echoAdmin())(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 on store failure", w.Code)
	}
}

func TestOptional(t *testing.T) {
	admin := testAdmin()
	mw := NewMiddleware(newFakeAdminStore(admin), testSecret)
	handler := mw.Optional(echoAdmin())
	token, _ := GenerateToken(testSecret, admin)

	tests := []struct {
		name       string
		authHeader string
		wantBody   string
	}{
		{"valid token resolves admin", "Bearer " + token, "adm-1"},
		{"no header passes through", "", "anonymous"},
		{"bad token passes through", "Bearer junk", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}
