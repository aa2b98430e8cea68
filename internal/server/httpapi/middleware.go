package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/annotrack/internal/common"
	"github.com/dmitrijs2005/annotrack/internal/logging"
	"github.com/dmitrijs2005/annotrack/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// TokenVerifier checks a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticator admits requests carrying a valid session token and stores
// its claims in the request context. A request without an Authorization
// header is answered with 401. Any credential that is present but not a
// verifiable bearer token, malformed ones included, gets 403.
func Authenticator(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get(common.AuthorizationHeaderName)) == "" {
				writeError(w, http.StatusUnauthorized, common.ErrMissingToken.Error())
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusForbidden, common.ErrInvalidToken.Error())
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				writeError(w, http.StatusForbidden, common.ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// AccessLog writes one line per request.
func AccessLog(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
