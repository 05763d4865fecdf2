package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/models"
)

type contextKey struct{}

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.AuthContext, error)
}

// JWTAuthMiddleware rejects requests without a valid bearer token and stores the
// resolved AuthContext in the request context.
func JWTAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				unauthorized(w, "authorization header missing")
				return
			}

			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenStr == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
				unauthorized(w, "bearer token required")
				return
			}

			authCtx, err := auth.Authenticate(r.Context(), tokenStr)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
				unauthorized(w, "invalid or expired token")
				return
			}

			logging.Logger.Debugf("Event ID: JWT_AUTH_SUCCESS, Description: Token validated for user %s on %s %s", authCtx.UserID.Hex(), r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

func WithAuth(ctx context.Context, auth models.AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, auth)
}

// AuthFromContext returns the identity stored by JWTAuthMiddleware.
func AuthFromContext(ctx context.Context) (models.AuthContext, bool) {
	auth, ok := ctx.Value(contextKey{}).(models.AuthContext)
	return auth, ok
}

// CORS allows the configured frontend origin and answers preflight requests.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
