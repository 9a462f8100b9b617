package middleware

import (
	"encoding/json"
	"net/http"
)

// StatsSource contributes one named section to the stats document.
type StatsSource func() any

// MetricsHandler exposes the collector snapshot, plus any extra sections,
// as JSON.
func MetricsHandler(c *Collector, sections map[string]StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		doc := map[string]any{"metrics": c.Snapshot()}
		for name, src := range sections {
			doc[name] = src()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(doc)
	}
}
