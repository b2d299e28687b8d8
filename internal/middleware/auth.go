package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/stockcast/stockcast/internal/httputil"
	"github.com/stockcast/stockcast/internal/logger"
	usermodel "github.com/stockcast/stockcast/internal/models/user"
	"github.com/stockcast/stockcast/internal/service"
)

type contextKey string

const userKey contextKey = "user"

type AuthMiddleware struct {
	users *service.UserService
	log   *logger.Logger
}

func NewAuthMiddleware(users *service.UserService) *AuthMiddleware {
	return &AuthMiddleware{
		users: users,
		log:   logger.New("auth-middleware"),
	}
}

// RequireAuth gates a handler behind a bearer token. Every failure is
// terminal for the request: no token 401, bad token 401, token for a
// user that no longer exists 401.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httputil.RespondError(w, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := m.users.ValidateToken(token)
		if err != nil {
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := m.users.GetUser(r.Context(), claims.UserID)
		if err != nil {
			m.log.Error("Failed to resolve token user: %v", err)
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if user == nil {
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

func GetUser(ctx context.Context) *usermodel.User {
	if user, ok := ctx.Value(userKey).(*usermodel.User); ok {
		return user
	}
	return nil
}
