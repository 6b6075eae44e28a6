package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/service"
)

type FineHandler struct {
	fines service.FineService
}

func NewFineHandler(fines service.FineService) *FineHandler {
	return &FineHandler{fines: fines}
}

func (h *FineHandler) Register(r *mux.Router) {
	r.HandleFunc("/fine/admin/all", h.ListAll).Methods(http.MethodGet)
	r.HandleFunc("/fine/user/{userId}", h.ListByUser).Methods(http.MethodGet)
	r.HandleFunc("/fine/pay/{borrowRecordId}", h.Pay).Methods(http.MethodPost)
}

func toFineResponses(fines []domain.Fine) []FineResponse {
	out := make([]FineResponse, 0, len(fines))
	for _, f := range fines {
		out = append(out, toFineResponse(f))
	}
	return out
}

func (h *FineHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	paid, err := queryBool(r, "paid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	fines, err := h.fines.ListAll(r.Context(), paid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FineListResponse{Fines: toFineResponses(fines)})
}

func (h *FineHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor := session(r).Actor()
	fines, err := h.fines.ListByUser(r.Context(), actor, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := h.fines.TotalOutstanding(r.Context(), actor, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FineListResponse{
		Fines:            toFineResponses(fines),
		TotalOutstanding: total.StringFixed(2),
	})
}

func (h *FineHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "borrowRecordId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	fine, err := h.fines.MarkAsPaid(r.Context(), session(r).Actor(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFineResponse(*fine))
}
