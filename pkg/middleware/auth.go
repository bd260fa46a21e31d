package middleware

import (
	"net/http"

	"turfbook/pkg/auth"
	apperrors "turfbook/pkg/errors"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// Authenticate attaches the caller's principal when a valid token is
// presented. Routes that need one are wrapped with RequireAuth.
func Authenticate(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				log.Debug("Rejected access token",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func RequireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		next(w, r, ps)
	}
}

func RequireRole(next httprouter.Handle, roles ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		p, ok := auth.FromContext(r.Context())
		if !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		for _, role := range roles {
			if p.Role == role {
				next(w, r, ps)
				return
			}
		}
		_ = httputil.WriteError(w, apperrors.Forbidden("Insufficient permissions"))
	}
}
