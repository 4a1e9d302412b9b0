package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Recover catches handler panics and returns the generic 500 envelope.
// The error detail is included only outside production.
func Recover(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
					body := map[string]interface{}{
						"success": false,
						"message": "Something went wrong!",
					}
					if production {
						body["error"] = "Internal Server Error"
					} else {
						body["error"] = fmt.Sprintf("%v", rec)
					}
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(body)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
