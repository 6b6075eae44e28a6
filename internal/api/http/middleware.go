package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"mylib-backend/internal/config"
	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

var errUnauthenticated = errors.New("authentication required")

// AuthMiddleware authenticates requests according to the policy of the
// matched route.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		policy := config.GetEndpointPolicy(r.Method, routeTemplate(r))
		if policy.Level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, r, errUnauthenticated)
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := checkSecurityLevel(policy.Level, claims); err != nil {
			writeError(w, r, err)
			return
		}

		s := Session{
			UserID:  claims.UserID,
			Email:   claims.Email,
			Roles:   parseRoles(claims.Roles),
			TokenID: claims.ID,
			Token:   token,
		}
		if len(policy.Roles) > 0 && !hasAnyRole(s.Roles, policy.Roles) {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "insufficient role", Code: "FORBIDDEN"})
			return
		}

		ctx := logger.WithUserID(WithSession(r.Context(), s), s.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tpl
}

// extractToken reads the bearer token. Browsers cannot set headers on a
// websocket handshake, so the access_token query parameter is accepted too.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return r.URL.Query().Get("access_token")
}

func checkSecurityLevel(level config.SecurityLevel, claims *security.UserClaims) error {
	switch level {
	case config.SecurityAccess:
		if claims.Type != security.TokenTypeAccess {
			return security.ErrWrongTokenType
		}
	case config.SecurityRefresh:
		if claims.Type != security.TokenTypeRefresh {
			return security.ErrWrongTokenType
		}
	}
	return nil
}

func parseRoles(names []string) []domain.Role {
	roles := make([]domain.Role, 0, len(names))
	for _, n := range names {
		if r, err := domain.ParseRole(n); err == nil {
			roles = append(roles, r)
		}
	}
	return roles
}

func hasAnyRole(have, want []domain.Role) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack passes the websocket handshake through to the server connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// RequestLogger assigns a request id and logs every request with its
// outcome.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.InfoContext(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// Recoverer turns a panicking handler into a 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.ErrorContext(r.Context(), "Handler panicked", "panic", p, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS answers preflight requests and allows the configured origins.
func CORS(allowed []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(allowed, origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
