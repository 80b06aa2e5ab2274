package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"p9e.in/plotdesk/middleware"
	"p9e.in/plotdesk/pkg/geocode"
	"p9e.in/plotdesk/pkg/inventory"
	"p9e.in/plotdesk/pkg/session"
)

// DefaultMapCenter is used when no plot has coordinates (centre of India)
var DefaultMapCenter = orb.Point{78.9629, 20.5937}

// Handler holds everything the HTTP endpoints need. It has no package globals;
// main wires one instance and routes hands its methods to mux.
type Handler struct {
	Store     *inventory.Store
	Gate      *session.Gate
	Sessions  session.Store
	Tokens    *middleware.Tokens
	Geocoder  geocode.Geocoder
	Phone     string // WhatsApp number for inquiry links
	SheetName string // worksheet name for xlsx export and import
	MapCenter orb.Point
	Log       *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps inventory errors onto HTTP statuses
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	var invalid *inventory.InvalidRecordError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":    "validation failed",
			"problems": invalid.Problems,
		})
	case errors.Is(err, inventory.ErrPersistence):
		writeError(w, http.StatusBadGateway, "could not save to the backing sheet, nothing was changed: "+err.Error())
	case errors.Is(err, inventory.ErrBackingStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backing sheet unavailable: "+err.Error())
	default:
		h.logger().Error("unexpected store error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
