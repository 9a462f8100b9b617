package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"
)

// Handler serves the stored counters for ?mode=, defaulting to defaultMode.
func Handler(a *Analytics, defaultMode string, logger logr.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = defaultMode
		}

		data, err := a.FetchModeAnalytics(r.Context(), mode)
		if err != nil {
			logger.Error(err, "fetching analytics", "mode", mode)
			http.Error(w, "analytics unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(data)
	}
}
