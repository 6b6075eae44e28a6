package http

import (
	"errors"
	"net/http"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/security"
	"mylib-backend/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{security.ErrExpiredToken, http.StatusUnauthorized, "TOKEN_EXPIRED"},
	{security.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{security.ErrWrongTokenType, http.StatusUnauthorized, "WRONG_TOKEN_TYPE"},
	{service.ErrSessionRevoked, http.StatusUnauthorized, "SESSION_REVOKED"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{errUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},

	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrAccountDisabled, http.StatusForbidden, "ACCOUNT_DISABLED"},

	{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{service.ErrBookNotFound, http.StatusNotFound, "BOOK_NOT_FOUND"},
	{service.ErrBorrowNotFound, http.StatusNotFound, "BORROW_RECORD_NOT_FOUND"},
	{service.ErrReservationNotFound, http.StatusNotFound, "RESERVATION_NOT_FOUND"},
	{service.ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},

	{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{service.ErrAlreadyReserved, http.StatusConflict, "ALREADY_RESERVED"},
	{service.ErrAlreadyBorrowing, http.StatusConflict, "ALREADY_BORROWING"},
	{service.ErrBookAvailable, http.StatusConflict, "BOOK_AVAILABLE"},
	{service.ErrBookUnavailable, http.StatusConflict, "BOOK_UNAVAILABLE"},
	{service.ErrLoanLimitReached, http.StatusConflict, "LOAN_LIMIT_REACHED"},
	{service.ErrReservationLimit, http.StatusConflict, "RESERVATION_LIMIT_REACHED"},
	{service.ErrDuplicateISBN, http.StatusConflict, "DUPLICATE_ISBN"},
	{service.ErrBookInUse, http.StatusConflict, "BOOK_IN_USE"},
	{service.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{service.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
	{domain.ErrFineAlreadyPaid, http.StatusConflict, "FINE_ALREADY_PAID"},
	{domain.ErrNoFineDue, http.StatusConflict, "NO_FINE_DUE"},

	{service.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrInvalidCorrection, http.StatusBadRequest, "INVALID_CORRECTION"},
	{domain.ErrInvalidBook, http.StatusBadRequest, "INVALID_BOOK"},
	{errBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// writeError maps err onto a status code. Unclassified errors are logged
// and their message is hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
