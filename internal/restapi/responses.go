package restapi

import (
	"encoding/json"
	"net/http"
)

func (api *RestAPI) sendJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		api.Logger.Error("failed to encode response", "error", err, "path", r.URL.Path)
	}
}
