package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"codeclive/internal/service"
	"codeclive/internal/transport/rest/middleware"
)

// LiveRoomHandler handles operator endpoints for live rooms
type LiveRoomHandler struct {
	roomSvc *service.RoomService
}

// NewLiveRoomHandler creates a new live room handler
func NewLiveRoomHandler(roomSvc *service.RoomService) *LiveRoomHandler {
	return &LiveRoomHandler{roomSvc: roomSvc}
}

// List handles GET /v1/liverooms
// @Summary List active live rooms
// @Tags liverooms
// @Produce json
// @Success 200 {array} model.RoomSummary
// @Router /liverooms [get]
func (h *LiveRoomHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.roomSvc.ActiveRooms())
}

// Get handles GET /v1/liverooms/{roomId}
// @Summary Current shared state of a room
// @Tags liverooms
// @Produce json
// @Param roomId path string true "Room ID"
// @Success 200 {object} model.RoomSession
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /liverooms/{roomId} [get]
func (h *LiveRoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	roomID := mux.Vars(r)["roomId"]
	if err := h.roomSvc.CanView(roomID, identity.Username); err != nil {
		writeServiceError(w, err)
		return
	}
	sess, err := h.roomSvc.Snapshot(roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Roster handles GET /v1/liverooms/{roomId}/roster
// @Summary Participants of a room in join order
// @Tags liverooms
// @Produce json
// @Param roomId path string true "Room ID"
// @Success 200 {array} model.RosterEntry
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /liverooms/{roomId}/roster [get]
func (h *LiveRoomHandler) Roster(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	roomID := mux.Vars(r)["roomId"]
	if err := h.roomSvc.CanView(roomID, identity.Username); err != nil {
		writeServiceError(w, err)
		return
	}
	roster, err := h.roomSvc.Roster(roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// End handles POST /v1/liverooms/{roomId}/end
// @Summary End a live room (mentor only)
// @Tags liverooms
// @Param roomId path string true "Room ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /liverooms/{roomId}/end [post]
func (h *LiveRoomHandler) End(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.roomSvc.EndRoom(r.Context(), mux.Vars(r)["roomId"], identity.Username); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mine handles GET /v1/liverooms/mine
// @Summary Durable records of the caller's rooms
// @Tags liverooms
// @Produce json
// @Success 200 {array} model.LiveRoomRecord
// @Failure 501 {object} map[string]string
// @Router /liverooms/mine [get]
func (h *LiveRoomHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recs, err := h.roomSvc.MentorRooms(r.Context(), identity.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Audit handles GET /v1/liverooms/{roomId}/audit
// @Summary Activity log of a room (mentor only)
// @Tags liverooms
// @Produce json
// @Param roomId path string true "Room ID"
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {array} model.AuditEntry
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /liverooms/{roomId}/audit [get]
func (h *LiveRoomHandler) Audit(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	entries, err := h.roomSvc.AuditTrail(r.Context(), mux.Vars(r)["roomId"], identity.Username, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, service.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrArchiveUnavailable):
		writeError(w, http.StatusNotImplemented, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
