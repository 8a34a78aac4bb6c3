package handlers

import (
	"encoding/json"
	"net/http"

	"pest-alert-system/pkg/realtime"
)

// HealthHandler reports liveness and the connected subscriber count.
func HealthHandler(hub *realtime.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":            "UP",
			"service":           "pest-alert-api",
			"connected_clients": hub.ClientCount(),
		})
	}
}
