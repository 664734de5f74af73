// Package middleware содержит HTTP middleware книжного магазина.
package middleware

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

type contextKey string

const userKey contextKey = "user"

const tokenTTL = 7 * 24 * time.Hour

// AuthUser — данные аутентифицированного пользователя из токена.
type AuthUser struct {
	ID       uuid.UUID
	Email    string
	Username string
	Role     model.UserRole
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthMiddleware выполняет проверку аутентификации по bearer-токену JWT.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// IssueToken выпускает подписанный JWT для пользователя.
func (a *AuthMiddleware) IssueToken(u *model.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Email:    u.Email,
		Username: u.Username,
		Role:     string(u.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *AuthMiddleware) parseToken(raw string) (*AuthUser, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}

	role := model.UserRole(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role: %s", claims.Role)
	}

	return &AuthUser{
		ID:       id,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     role,
	}, nil
}

// Middleware проверяет заголовок Authorization и кладёт пользователя
// в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		user, err := a.parseToken(raw)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles пропускает запрос только от пользователей с одной из
// перечисленных ролей. Должен стоять после Middleware.
func RequireRoles(roles ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// GetUserFromContext извлекает аутентифицированного пользователя из контекста запроса.
func GetUserFromContext(ctx context.Context) (*AuthUser, bool) {
	user, ok := ctx.Value(userKey).(*AuthUser)
	return user, ok
}
