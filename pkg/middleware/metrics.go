package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"turfbook/pkg/metrics"
)

var (
	objectIDSegment    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	transactionSegment = regexp.MustCompile(`^(turf-booking|manual)-[0-9a-fA-F-]{36}$`)
)

func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.RecordHTTPRequest(
				r.Method,
				routeLabel(r.URL.Path),
				strconv.Itoa(wrapped.statusCode),
				time.Since(start).Seconds(),
			)
		})
	}
}

// routeLabel collapses identifiers so the path label stays low cardinality.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if objectIDSegment.MatchString(s) || transactionSegment.MatchString(s) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
