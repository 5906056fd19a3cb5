package restapi

import (
	"net/http"

	"ctaboard.trainboard.dev/internal/models"
)

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	store := api.Arrivals.Store()
	api.sendJSON(w, r, http.StatusOK, models.NewHealthResponse(store.Len(), store.Now()))
}
