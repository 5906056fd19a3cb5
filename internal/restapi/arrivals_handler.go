package restapi

import (
	"errors"
	"net/http"

	"ctaboard.trainboard.dev/internal/arrivals"
)

// ctaArrivalsHandler serves GET /api/cta-arrivals?stpid=..|mapid=..&walkTime=..
func (api *RestAPI) ctaArrivalsHandler(w http.ResponseWriter, r *http.Request) {
	query, err := arrivals.ParseQuery(r.URL.Query(), api.DefaultQuery())
	if err != nil {
		var inputErr *arrivals.InputError
		if errors.As(err, &inputErr) {
			api.badRequestResponse(w, r, inputErr.Message)
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	result, err := api.Arrivals.Arrivals(r.Context(), query)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, result)
}
