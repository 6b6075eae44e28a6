package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/service"
)

// UserHandler serves registration, sessions and member administration.
type UserHandler struct {
	auth  service.AuthService
	users service.UserService
}

func NewUserHandler(auth service.AuthService, users service.UserService) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

func (h *UserHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/users/register", h.SignUp).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/refresh-token", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/users/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/api/users/current", h.Current).Methods(http.MethodGet)
	r.HandleFunc("/api/users/all", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userId}/roles", h.UpdateRoles).Methods(http.MethodPut)
	r.HandleFunc("/api/users/{userId}/enable", h.setEnabled(true)).Methods(http.MethodPut)
	r.HandleFunc("/api/users/{userId}/disable", h.setEnabled(false)).Methods(http.MethodPut)
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pair, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair, user))
}

// Refresh exchanges the refresh token in the Authorization header for a new
// pair.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.auth.RefreshToken(r.Context(), session(r).Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair, nil))
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), session(r).Token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	user, err := h.users.GetUser(r.Context(), s.Actor(), s.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req RolesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	roles := make([]domain.Role, 0, len(req.Roles))
	for _, name := range req.Roles {
		role, err := domain.ParseRole(name)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		roles = append(roles, role)
	}

	user, err := h.users.UpdateRoles(r.Context(), session(r).Actor(), userID, roles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

func (h *UserHandler) setEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathID(r, "userId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.users.SetEnabled(r.Context(), session(r).Actor(), userID, enabled); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
