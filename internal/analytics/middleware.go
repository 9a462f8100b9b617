package analytics

import (
	"net/http"
	"time"

	"github.com/CSroseX/mock-http-server/internal/middleware"
)

// Middleware hands every answered request to rec once the response is
// written.
func Middleware(rec *Recorder, mode string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sc := middleware.NewStatusCapture(w)
		next.ServeHTTP(sc, r)

		rec.Record(mode, sc.Status(), time.Since(start))
	})
}
