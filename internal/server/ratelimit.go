package server

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	apperrors "github.com/zballl/vibecheck-app/internal/errors"
)

// rateLimit bounds recommendation traffic per client IP. Each request can fan
// out to several upstream calls, so the limit protects the shared credential.
func rateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			HandleError(w, r, apperrors.NewRateLimitedError("too many recommendation requests; slow down"))
		}),
	)
}
