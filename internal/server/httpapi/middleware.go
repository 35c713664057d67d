package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
)

type ctxKey string

const userKey ctxKey = "user"

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		a.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// authenticate resolves the caller according to the configured auth mode and
// stores the user in the request context. Token mode accepts only bearer
// tokens and basic mode only Basic credentials.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var (
			user *models.User
			err  error
		)

		switch a.authMode {
		case config.AuthModeBasic:
			email, password, ok := r.BasicAuth()
			if !ok || email == "" || password == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="todokeeper"`)
				writeErrorMessage(w, http.StatusUnauthorized, "Basic authentication required")
				return
			}
			user, err = a.users.AuthenticateBasic(ctx, email, password)
		default:
			var token string
			token, err = auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
			if err == nil {
				user, err = a.users.ResolveAccessToken(ctx, token)
			}
		}

		if err != nil {
			a.writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userKey, user)))
	})
}
