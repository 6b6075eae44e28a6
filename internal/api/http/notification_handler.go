package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mylib-backend/internal/logger"
	"mylib-backend/internal/service"
)

// SocketServer attaches an upgraded connection to a member.
type SocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID int64) error
}

type NotificationHandler struct {
	notes  service.NotificationService
	socket SocketServer
}

func NewNotificationHandler(notes service.NotificationService, socket SocketServer) *NotificationHandler {
	return &NotificationHandler{notes: notes, socket: socket}
}

func (h *NotificationHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/{id}/read", h.MarkAsRead).Methods(http.MethodPut)
	if h.socket != nil {
		r.HandleFunc("/ws/notifications", h.Stream).Methods(http.MethodGet)
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", 20)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, total, err := h.notes.GetNotifications(r.Context(), session(r).UserID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: notes,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notes.MarkAsRead(r.Context(), session(r).UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream upgrades to a websocket that receives the member's notifications
// as they are created.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if err := h.socket.Serve(w, r, session(r).UserID); err != nil {
		// The upgrader has already written the failure response.
		logger.WarnContext(r.Context(), "Websocket upgrade failed", "error", err)
	}
}
