package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"pest-alert-system/pkg/middleware"
	"pest-alert-system/pkg/realtime"
	"pest-alert-system/pkg/response"
)

// StreamHandler serves the server-sent-events alert stream. Each connection
// registers one subscriber with the hub; events are pushed with no
// acknowledgment and nothing is queued for disconnected clients.
type StreamHandler struct {
	hub *realtime.Hub
}

func NewStreamHandler(hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// Subscribe handles GET /api/alerts/subscribe. EventSource cannot set
// headers, so the token is accepted as a query parameter as well as a
// Bearer header.
func (h *StreamHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		response.Error(w, http.StatusUnauthorized, "Missing token", "")
		return
	}

	claims, err := middleware.ParseToken(tokenString)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Invalid token", "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := realtime.NewClient(claims.UserID, claims.Name)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	fmt.Fprintf(w, "event: connected\ndata: {\"message\":\"Connection established\"}\n\n")
	flusher.Flush()

	for {
		select {
		case msg, open := <-client.Send:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
