package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quizhub/internal/domain"
	"quizhub/internal/logger"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

// TokenParser turns a bearer token into a user id.
type TokenParser interface {
	ParseToken(raw string) (int64, error)
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Authenticate resolves an optional bearer token. Requests without one stay
// anonymous; a malformed or expired token is rejected outright.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthenticated.Error()})
				return
			}
			userID, err := tokens.ParseToken(strings.TrimSpace(raw))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthenticated.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequestLogger tags each request with an id and logs it once served.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithRequestID(requestID).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request served with error")
				return
			}
			entry.Debug("request served")
		})
	}
}
