package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const accountIDKey ctxKey = iota

// Виды токенов песочницы.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrTokenKind — токен валиден, но другого вида (например, refresh вместо access).
var ErrTokenKind = errors.New("unexpected token kind")

// Claims — полезная нагрузка JWT песочницы. Subject — id аккаунта.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// BuildToken выпускает HS256-токен указанного вида для аккаунта.
func BuildToken(accountID int64, kind string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись, срок действия и вид токена и возвращает id аккаунта.
func ParseToken(token, kind, secret string) (int64, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if claims.Kind != kind {
		return 0, fmt.Errorf("%w: %q", ErrTokenKind, claims.Kind)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject: %w", err)
	}
	return id, nil
}

// WithAuth кладёт id аккаунта в контекст, если в запросе валидный Bearer access-токен.
// Запросы без токена проходят анонимно; закрытые маршруты оборачиваются в RequireAuth.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := ParseToken(token, TokenAccess, secret)
			if err != nil {
				sugar.Debugw("bearer token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountIDKey, id)))
		})
	}
}

// RequireAuth отвечает 401, если WithAuth не распознал аккаунт.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetAccountIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAccountIDFromContext возвращает id аккаунта, положенный WithAuth.
func GetAccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok
}
