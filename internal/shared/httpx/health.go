package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) (status string, ok bool)

// HealthHandler runs every check and answers 200 when all pass, 503 otherwise.
func HealthHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, check := range checks {
			s, ok := check(ctx)
			body[name] = s
			if !ok {
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
