package restapi

import (
	"time"

	"ctaboard.trainboard.dev/internal/app"
)

// RestAPI serves the HTTP surface of the application.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a RestAPI with a per-client rate limiter built from the
// application config. Invalid trusted proxy entries are skipped; Validate
// reports them at startup.
func NewRestAPI(app *app.Application) *RestAPI {
	trusted, _ := app.Config.TrustedProxyPrefixes()
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, trusted),
	}
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
