package restapi

import (
	"errors"
	"net/http"

	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/logging"
	"ctaboard.trainboard.dev/internal/models"
)

const upstreamFailureMessage = "Failed to fetch data from CTA API"

// badRequestResponse sends a 400 with the caller-facing message only.
func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	api.sendJSON(w, r, http.StatusBadRequest, models.ErrorResponse{Error: message})
}

// upstreamErrorResponse sends a 504 for upstream timeouts and a 500 for every
// other upstream failure.
func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, cta.ErrUpstreamTimeout) {
		status = http.StatusGatewayTimeout
	}

	logging.LogError(api.Logger, "failed to fetch arrivals", err,
		logAttrRequestID(r),
		logAttrStatus(status))

	api.sendJSON(w, r, status, models.ErrorResponse{
		Error:   upstreamFailureMessage,
		Details: err.Error(),
	})
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "internal server error", err, logAttrRequestID(r))
	api.sendJSON(w, r, http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
}

func (api *RestAPI) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, http.StatusNotFound, models.ErrorResponse{Error: "resource not found"})
}

func (api *RestAPI) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
}
