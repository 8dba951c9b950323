package httphandler

import (
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/notifications (200 OK)

func RegisterNotifications(mux *http.ServeMux, reader port.NotificationReader) {
	mux.HandleFunc("GET /v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, notificationsFromDomain(reader.Drain()))
	})
}
