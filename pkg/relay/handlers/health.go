package handlers

import (
	"net/http"

	"relaywire/courier/pkg/relay"
)

// healthResponse is the liveness probe body.
type healthResponse struct {
	OK   bool   `json:"ok"`
	Note string `json:"note"`
}

// Health reports process liveness. It never checks upstream reachability or
// credentials, so it stays green while the upstream is down.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMethodNotFound(w)
			return
		}

		_ = relay.WriteJSON(w, http.StatusOK, healthResponse{
			OK:   true,
			Note: "worker up",
		})
	}
}
