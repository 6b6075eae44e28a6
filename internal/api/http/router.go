package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mylib-backend/internal/security"
	"mylib-backend/internal/service"
)

// Services is everything the REST API serves.
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Books         service.BookService
	Borrows       service.BorrowService
	Reservations  service.ReservationService
	Fines         service.FineService
	Notifications service.NotificationService
}

// NewRouter builds the REST API. Authentication runs after route matching so
// the policy lookup sees the path template.
func NewRouter(svc Services, tokens security.TokenManager, db Pinger, socket SocketServer, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(NewAuthMiddleware(tokens).Handler)

	NewHealthHandler(db).Register(r)
	NewUserHandler(svc.Auth, svc.Users).Register(r)
	NewBookHandler(svc.Books).Register(r)
	NewBorrowHandler(svc.Borrows).Register(r)
	NewReservationHandler(svc.Reservations).Register(r)
	NewFineHandler(svc.Fines).Register(r)
	NewNotificationHandler(svc.Notifications, socket).Register(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "NOT_FOUND"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})

	return RequestLogger(Recoverer(CORS(allowedOrigins)(r)))
}
