package platform

import "net/http"

// APIKeyMiddleware enforces the X-API-Key header on ingest endpoints.
// If no key is configured the check is skipped.
func APIKeyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := GetEnv("SALESMERGE_API_KEY", "")
		if key == "" {
			next(w, r)
			return
		}

		if r.Header.Get("X-API-Key") != key {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
