package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cliphub/internal/model"
	"cliphub/internal/token"
)

type accessVerifier interface {
	VerifyAccess(tokenString string) (*token.Claims, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type contextKey string

const currentUserContextKey contextKey = "current_user"

// AuthMiddleware gates requests on a valid access token. The token is read
// from the accessToken cookie first, then from the Authorization header.
// On success the sanitized user is attached to the request context.
type AuthMiddleware struct {
	verifier accessVerifier
	users    userLoader
}

func NewAuthMiddleware(verifier accessVerifier, users userLoader) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.authenticate(r)
		if !ok {
			writeUnauthorized(w, "unauthorized request")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the user when a valid token is present but never
// rejects. Used where viewer identity only personalizes the response.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := m.authenticate(r); ok {
			r = r.WithContext(withUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (model.PublicUser, bool) {
	tokenString := extractAccessToken(r)
	if tokenString == "" {
		return model.PublicUser{}, false
	}

	claims, err := m.verifier.VerifyAccess(tokenString)
	if err != nil {
		return model.PublicUser{}, false
	}

	user, err := m.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		return model.PublicUser{}, false
	}

	return user.Public(), true
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}

	return strings.TrimSpace(header[7:])
}

func withUser(ctx context.Context, user model.PublicUser) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}

func UserFromContext(ctx context.Context) (model.PublicUser, bool) {
	user, ok := ctx.Value(currentUserContextKey).(model.PublicUser)
	return user, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(model.NewErrorResponse(http.StatusUnauthorized, message, nil))
}
