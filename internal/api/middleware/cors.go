package middleware

import "net/http"

// CORS header values sent to allowed origins.
const (
	AllowMethods = "OPTIONS, GET, POST"
	AllowHeaders = "Content-Type"
)

// NewCORSMiddleware echoes the request Origin in
// Access-Control-Allow-Origin when it is in origins. Requests from other
// origins pass through without CORS headers.
func NewCORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Methods", AllowMethods)
					h.Set("Access-Control-Allow-Headers", AllowHeaders)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
