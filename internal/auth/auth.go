package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/videogate/videogate/internal/httputil"
)

type contextKey string

const tabIDKey contextKey = "tabID"

const optionsRealm = `Basic realm="videogate options"`

type Handler struct {
	jwtSecret    string
	passwordHash []byte
}

// NewHandler creates the auth middlewares. passwordHash is a bcrypt hash
// guarding the options API; when empty the options API is closed.
func NewHandler(jwtSecret string, passwordHash string) *Handler {
	return &Handler{jwtSecret: jwtSecret, passwordHash: []byte(passwordHash)}
}

// TokensEnabled reports whether tab tokens can be issued and checked.
func (h *Handler) TokensEnabled() bool {
	return h.jwtSecret != ""
}

// HashPassword returns a bcrypt hash suitable for OPTIONS_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// IssueTabToken signs a token for tabID.
func (h *Handler) IssueTabToken(tabID string) (string, error) {
	return GenerateTabToken(h.jwtSecret, tabID)
}

// TabMiddleware requires a bearer tab token and stores its tab id in the
// request context.
func (h *Handler) TabMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := ValidateToken(h.jwtSecret, tokenStr)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), tabIDKey, claims.TabID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TabIDFromContext(ctx context.Context) string {
	tabID, _ := ctx.Value(tabIDKey).(string)
	return tabID
}

// OptionsMiddleware checks HTTP basic auth against the options password.
// Any user name is accepted.
func (h *Handler) OptionsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.passwordHash) == 0 {
			httputil.WriteError(w, http.StatusServiceUnavailable, "options password not configured")
			return
		}

		_, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", optionsRealm)
			httputil.WriteError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(password)); err != nil {
			w.Header().Set("WWW-Authenticate", optionsRealm)
			httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}
