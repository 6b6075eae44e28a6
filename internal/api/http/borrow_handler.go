package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/service"
)

type BorrowHandler struct {
	borrows service.BorrowService
}

func NewBorrowHandler(borrows service.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrows: borrows}
}

func (h *BorrowHandler) Register(r *mux.Router) {
	r.HandleFunc("/borrow/request/{userId}/{bookId}", h.RequestBorrow).Methods(http.MethodPost)
	r.HandleFunc("/borrow/return/request/{id}", h.transition(h.borrows.RequestReturn)).Methods(http.MethodPut)
	r.HandleFunc("/borrow/cancel/request/{id}", h.transition(h.borrows.CancelBorrowRequest)).Methods(http.MethodPut)
	r.HandleFunc("/borrow/cancel/return/{id}", h.transition(h.borrows.CancelReturnRequest)).Methods(http.MethodPut)
	r.HandleFunc("/borrow/admin/approve/{id}", h.transition(h.borrows.ApproveBorrow)).Methods(http.MethodPut)
	r.HandleFunc("/borrow/admin/reject/{id}", h.transition(h.borrows.RejectBorrow)).Methods(http.MethodPut)
	r.HandleFunc("/borrow/admin/return/approve/{id}", h.transition(h.borrows.ApproveReturn)).Methods(http.MethodPut)
	r.HandleFunc("/borrow/admin/update/{id}", h.Correct).Methods(http.MethodPut)
	r.HandleFunc("/borrow/admin/audit/{id}", h.AuditTrail).Methods(http.MethodGet)
	r.HandleFunc("/borrow/admin/all", h.All).Methods(http.MethodGet)
	r.HandleFunc("/borrow/history/{userId}", h.History).Methods(http.MethodGet)
	r.HandleFunc("/borrow/active/{userId}", h.Active).Methods(http.MethodGet)
	r.HandleFunc("/borrow/book/{bookId}/history", h.BookHistory).Methods(http.MethodGet)
	r.HandleFunc("/borrow/{id}", h.Get).Methods(http.MethodGet)
}

func (h *BorrowHandler) RequestBorrow(w http.ResponseWriter, r *http.Request) {
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
	rec, err := h.borrows.RequestBorrow(r.Context(), session(r).Actor(), userID, bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBorrowResponse(*rec, h.borrows.Today()))
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)

// transition adapts a single-record lifecycle operation to a handler.
func (h *BorrowHandler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		rec, err := fn(r.Context(), session(r).Actor(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBorrowResponse(*rec, h.borrows.Today()))
	}
}

func (h *BorrowHandler) Correct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req CorrectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.borrows.AdminCorrectRecord(r.Context(), session(r).Actor(), id, req.patch(), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBorrowResponse(*rec, h.borrows.Today()))
}

func (h *BorrowHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	audits, err := h.borrows.AuditTrail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponses(audits))
}

// All lists every loan. status narrows to one stored status; overdue=true
// keeps only loans past their due date.
func (h *BorrowHandler) All(w http.ResponseWriter, r *http.Request) {
	var q service.BorrowQuery
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		if strings.EqualFold(raw, domain.DisplayStatusOverdue) {
			q.OverdueOnly = true
		} else {
			status, err := domain.ParseBorrowStatus(strings.ToUpper(raw))
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
				return
			}
			q.Status = &status
		}
	}
	overdue, err := queryBool(r, "overdue")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if overdue != nil && *overdue {
		q.OverdueOnly = true
	}

	recs, err := h.borrows.All(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBorrowResponses(recs, h.borrows.Today()))
}

func (h *BorrowHandler) History(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, h.borrows.History)
}

func (h *BorrowHandler) Active(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, h.borrows.Active)
}

func (h *BorrowHandler) listForUser(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error)) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := fn(r.Context(), session(r).Actor(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBorrowResponses(recs, h.borrows.Today()))
}

func (h *BorrowHandler) BookHistory(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := h.borrows.BookHistory(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBorrowResponses(recs, h.borrows.Today()))
}

func (h *BorrowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.borrows.GetRecord(r.Context(), session(r).Actor(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBorrowResponse(*rec, h.borrows.Today()))
}
