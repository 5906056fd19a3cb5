package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes returns the router wrapped in the full middleware chain.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(api.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/api/cta-arrivals", api.ctaArrivalsHandler)
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)

	var handler http.Handler = router
	if api.rateLimiter != nil {
		handler = api.rateLimiter.Handler(handler)
	}
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)

	return handler
}
