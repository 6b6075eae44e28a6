package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mylib-backend/internal/service"
)

type ReservationHandler struct {
	reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

func (h *ReservationHandler) Register(r *mux.Router) {
	r.HandleFunc("/reservation/user/{userId}/{bookId}", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/reservation/user/{userId}", h.ListByUser).Methods(http.MethodGet)
	r.HandleFunc("/reservation/user/{reserveId}", h.Cancel).Methods(http.MethodPut)
	r.HandleFunc("/reservation/all", h.ListAll).Methods(http.MethodGet)
	r.HandleFunc("/reservation/admin/reject/{reserveId}", h.Reject).Methods(http.MethodPut)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	bookID, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservations.CreateReservation(r.Context(), session(r).Actor(), userID, bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(*res))
}

func (h *ReservationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.reservations.ListByUser(r.Context(), session(r).Actor(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

func (h *ReservationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(list))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reserveId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservations.CancelReservation(r.Context(), session(r).Actor(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(*res))
}

func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reserveId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservations.RejectReservation(r.Context(), session(r).Actor(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(*res))
}
