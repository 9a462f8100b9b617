package delay

import (
	"net/http"

	"github.com/go-logr/logr"

	"github.com/CSroseX/mock-http-server/internal/observability"
)

// Middleware suspends every request for the policy duration before handing
// it to next. If the client disconnects first, next is never called and the
// request is answered with 499.
func (p *Policy) Middleware(logger logr.Logger, next http.Handler) http.Handler {
	if !p.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.Wait(r.Context()); err != nil {
			logger.V(observability.VDebug).Info("client went away during delay",
				"method", r.Method, "path", r.URL.Path, "delay", p.Duration.String(), "reason", err.Error())
			w.WriteHeader(StatusClientClosedRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}
