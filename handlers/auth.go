package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"p9e.in/plotdesk/middleware"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResp struct {
	Token   string              `json:"token,omitempty"`
	Session models.SessionState `json:"session"`
}

// StartSession opens a visitor session; a later Login on the same token makes it admin
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.Sessions.Create(r.Context())
	if err != nil {
		h.logger().Error("create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	h.respondWithToken(w, http.StatusCreated, state)
}

// Login checks the admin credential pair and flips the session's admin flag.
// It reuses the caller's session when a valid token is sent, else starts one.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.Gate.Authenticate(req.Username, req.Password) {
		h.logger().Warn("admin login rejected", zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid ID or Password")
		return
	}

	state, ok := middleware.GetSession(r)
	if !ok {
		var err error
		if state, err = h.Sessions.Create(r.Context()); err != nil {
			h.logger().Error("create session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not start session")
			return
		}
	}
	state.IsAdmin = true
	state, err := h.Sessions.Save(r.Context(), state)
	if err != nil {
		h.logger().Error("save session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save session")
		return
	}
	h.logger().Info("admin logged in", zap.String("session", state.ID))
	h.respondWithToken(w, http.StatusOK, state)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, state models.SessionState) {
	token, err := h.Tokens.GenerateToken(state.ID)
	if err != nil {
		h.logger().Error("sign token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, status, sessionResp{Token: token, Session: state})
}

// Logout clears the admin flag; the session and its GPS scratch stay
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	state, _ := middleware.GetSession(r)
	state.IsAdmin = false
	state, err := h.Sessions.Save(r.Context(), state)
	if err != nil {
		h.logger().Error("save session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResp{Session: state})
}

// CurrentSession returns the caller's session state
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	state, _ := middleware.GetSession(r)
	writeJSON(w, http.StatusOK, sessionResp{Session: state})
}

type gpsReq struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// CaptureGPS stores a device fix as the scratch coordinates that pre-fill new records
func (h *Handler) CaptureGPS(w http.ResponseWriter, r *http.Request) {
	var req gpsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	fix := models.PlotRecord{Status: models.PlotStatusAvailable, Lat: req.Lat, Lon: req.Lon}
	if err := inventory.Validate(fix); err != nil {
		h.writeStoreError(w, err)
		return
	}

	state, _ := middleware.GetSession(r)
	state.Lat, state.Lon, state.HasFix = *req.Lat, *req.Lon, true
	state, err := h.Sessions.Save(r.Context(), state)
	if err != nil {
		h.logger().Error("save session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResp{Session: state})
}
