package middleware

import (
	"net/http"
	"slices"
	"strings"

	apperrors "turfbook/pkg/errors"
	httputil "turfbook/pkg/http"
	"turfbook/pkg/logger"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// ContentTypeValidation rejects bodies that are neither JSON nor a urlencoded
// form. Payment gateways post forms to the webhook and redirect endpoints.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	allowed := []string{ContentTypeJSON, ContentTypeForm}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r) {
				contentType := extractContentType(r.Header.Get("Content-Type"))

				if !slices.Contains(allowed, contentType) {
					rejectInvalidContentType(w, log, r, contentType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Bodyless requests such as PATCH /cancel carry no content type.
func requiresContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	default:
		return false
	}
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.Split(header, ";")
	return strings.ToLower(strings.TrimSpace(parts[0]))
}

func rejectInvalidContentType(w http.ResponseWriter, log *logger.Logger, r *http.Request, contentType string) {
	log.Warn("Invalid Content-Type header",
		"request_id", RequestID(r.Context()),
		"content_type", contentType,
		"path", r.URL.Path,
		"method", r.Method,
	)

	_ = httputil.WriteError(w, apperrors.New(
		"UNSUPPORTED_MEDIA_TYPE",
		"Content-Type must be application/json or application/x-www-form-urlencoded",
		http.StatusUnsupportedMediaType,
	))
}
