package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

func testUser(role model.UserRole) *model.User {
	return &model.User{
		ID:       uuid.New(),
		Email:    "reader@example.com",
		Username: "reader",
		Role:     role,
	}
}

func TestAuthMiddleware_WithValidToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret")
	u := testUser(model.RoleMember)

	token, err := m.IssueToken(u)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Fatalf("user not in context")
		}
		if got.ID != u.ID {
			t.Fatalf("user id = %s, want %s", got.ID, u.ID)
		}
		if got.Email != u.Email || got.Username != u.Username || got.Role != u.Role {
			t.Fatalf("unexpected user in context: %+v", got)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestIssueToken_SevenDayExpiry(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	before := time.Now()
	token, err := m.IssueToken(testUser(model.RoleMember))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims := &tokenClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secretKey, nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}

	want := before.Add(7 * 24 * time.Hour)
	got := claims.ExpiresAt.Time
	if got.Before(want.Add(-time.Minute)) || got.After(want.Add(time.Minute)) {
		t.Fatalf("token expiry = %s, want about %s", got, want)
	}
}

func TestAuthMiddleware_WithoutToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.Middleware(next).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	issuer := NewAuthMiddleware("secret-one")
	verifier := NewAuthMiddleware("secret-two")

	token, err := issuer.IssueToken(testUser(model.RoleMember))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireRoles(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	tests := []struct {
		name       string
		role       model.UserRole
		allowed    []model.UserRole
		wantStatus int
	}{
		{name: "admin allowed", role: model.RoleAdmin, allowed: []model.UserRole{model.RoleAdmin}, wantStatus: http.StatusOK},
		{name: "staff allowed with admin", role: model.RoleStaff, allowed: []model.UserRole{model.RoleAdmin, model.RoleStaff}, wantStatus: http.StatusOK},
		{name: "member forbidden", role: model.RoleMember, allowed: []model.UserRole{model.RoleAdmin}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.IssueToken(testUser(tt.role))
			if err != nil {
				t.Fatalf("IssueToken: %v", err)
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			r.Header.Set("Authorization", "Bearer "+token)

			handler := m.Middleware(RequireRoles(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRoles_NoUserInContext(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)

	RequireRoles(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
