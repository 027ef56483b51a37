package middleware

import "net/http"

// NewBodyLimitMiddleware caps request bodies at limit bytes. Reads beyond
// the limit fail with *http.MaxBytesError.
func NewBodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
