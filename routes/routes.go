package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"p9e.in/plotdesk/docs"
	"p9e.in/plotdesk/handlers"
	"p9e.in/plotdesk/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(h *handlers.Handler, sessions *middleware.Sessions, log *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.AccessLog(log))

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.Handle("/login", sessions.Optional(http.HandlerFunc(h.Login))).Methods("POST")
	r.HandleFunc("/swagger/doc.json", docs.ServeDoc).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/plots", h.ListPlots).Methods("GET")
	api.HandleFunc("/plots/map", h.PlotMap).Methods("GET")
	api.HandleFunc("/plots/{index:[0-9]+}/inquiry", h.PlotInquiry).Methods("GET")
	api.HandleFunc("/session", h.StartSession).Methods("POST")

	// =====================================================
	// Session Routes (require a session token)
	// =====================================================
	sess := api.PathPrefix("/session").Subrouter()
	sess.Use(sessions.Require)
	sess.HandleFunc("", h.CurrentSession).Methods("GET")
	sess.HandleFunc("/logout", h.Logout).Methods("POST")
	sess.HandleFunc("/gps", h.CaptureGPS).Methods("POST")

	// =====================================================
	// Admin Routes (require an admin session)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(sessions.Require, middleware.RequireAdmin)
	registerAdminRoutes(admin, h)

	return r
}

func registerAdminRoutes(r *mux.Router, h *handlers.Handler) {
	r.HandleFunc("/plots", h.AddPlot).Methods("POST")
	r.HandleFunc("/plots", h.ReplacePlots).Methods("PUT")
	r.HandleFunc("/plots/import", h.ImportPlots).Methods("POST")
	r.HandleFunc("/plots/export.xlsx", h.ExportXLSX).Methods("GET")
	r.HandleFunc("/plots/export.shp.zip", h.ExportShapefile).Methods("GET")
	r.HandleFunc("/geocode", h.Geocode).Methods("GET")
}
