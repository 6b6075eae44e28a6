package http

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/service"
)

type BorrowRecordResponse struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"userId"`
	BookID         int64        `json:"bookId"`
	Status         string       `json:"status"`
	DisplayStatus  string       `json:"displayStatus"`
	Overdue        bool         `json:"overdue"`
	IssueDate      *domain.Date `json:"issueDate"`
	DueDate        *domain.Date `json:"dueDate"`
	ReturnDate     *domain.Date `json:"returnDate"`
	FineAmount     string       `json:"fineAmount"`
	FinePaid       bool         `json:"finePaid"`
	FinePaidAmount string       `json:"finePaidAmount"`
	FinePaidAt     *time.Time   `json:"finePaidAt,omitempty"`
	ReservationID  *int64       `json:"reservationId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func toBorrowResponse(rec domain.BorrowRecord, today domain.Date) BorrowRecordResponse {
	return BorrowRecordResponse{
		ID:             rec.ID,
		UserID:         rec.UserID,
		BookID:         rec.BookID,
		Status:         string(rec.Status),
		DisplayStatus:  rec.DisplayStatus(today),
		Overdue:        rec.IsOverdue(today),
		IssueDate:      rec.IssueDate,
		DueDate:        rec.DueDate,
		ReturnDate:     rec.ReturnDate,
		FineAmount:     rec.FineAmount.StringFixed(2),
		FinePaid:       rec.FinePaid,
		FinePaidAmount: rec.FinePaidAmount.StringFixed(2),
		FinePaidAt:     rec.FinePaidAt,
		ReservationID:  rec.ReservationID,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func toBorrowResponses(recs []domain.BorrowRecord, today domain.Date) []BorrowRecordResponse {
	out := make([]BorrowRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toBorrowResponse(rec, today))
	}
	return out
}

// CorrectionRequest is the admin force-update body. borrowDate is accepted
// as an alias of issueDate for older clients.
type CorrectionRequest struct {
	IssueDate  *domain.Date     `json:"issueDate"`
	BorrowDate *domain.Date     `json:"borrowDate"`
	DueDate    *domain.Date     `json:"dueDate"`
	ReturnDate *domain.Date     `json:"returnDate"`
	FineAmount *decimal.Decimal `json:"fineAmount"`
	Reason     string           `json:"reason"`
}

func (c CorrectionRequest) patch() domain.BorrowRecordPatch {
	issue := c.IssueDate
	if issue == nil {
		issue = c.BorrowDate
	}
	return domain.BorrowRecordPatch{
		IssueDate:  issue,
		DueDate:    c.DueDate,
		ReturnDate: c.ReturnDate,
		FineAmount: c.FineAmount,
	}
}

type AuditResponse struct {
	ID             int64               `json:"id"`
	BorrowRecordID int64               `json:"borrowRecordId"`
	ActorID        int64               `json:"actorId"`
	Reason         string              `json:"reason"`
	Before         jsoniter.RawMessage `json:"before"`
	After          jsoniter.RawMessage `json:"after"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toAuditResponses(audits []domain.BorrowRecordAudit) []AuditResponse {
	out := make([]AuditResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, AuditResponse{
			ID:             a.ID,
			BorrowRecordID: a.BorrowRecordID,
			ActorID:        a.ActorID,
			Reason:         a.Reason,
			Before:         a.Before,
			After:          a.After,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}

type ReservationResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	BookID    int64     `json:"bookId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReservationResponse(res domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        res.ID,
		UserID:    res.UserID,
		BookID:    res.BookID,
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}
}

func toReservationResponses(list []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toReservationResponse(res))
	}
	return out
}

type FineResponse struct {
	BorrowRecordID int64        `json:"borrowRecordId"`
	UserID         int64        `json:"userId"`
	BookID         int64        `json:"bookId"`
	Amount         string       `json:"amount"`
	PaidAmount     string       `json:"paidAmount"`
	Outstanding    string       `json:"outstanding"`
	IssueDate      *domain.Date `json:"issueDate"`
	DueDate        *domain.Date `json:"dueDate"`
	ReturnDate     *domain.Date `json:"returnDate"`
	Status         string       `json:"status"`
	Overdue        bool         `json:"overdue"`
	Paid           bool         `json:"paid"`
	PaidAt         *time.Time   `json:"paidAt,omitempty"`
}

func toFineResponse(f domain.Fine) FineResponse {
	return FineResponse{
		BorrowRecordID: f.BorrowRecordID,
		UserID:         f.UserID,
		BookID:         f.BookID,
		Amount:         f.Amount.StringFixed(2),
		PaidAmount:     f.PaidAmount.StringFixed(2),
		Outstanding:    f.Outstanding.StringFixed(2),
		IssueDate:      f.IssueDate,
		DueDate:        f.DueDate,
		ReturnDate:     f.ReturnDate,
		Status:         string(f.Status),
		Overdue:        f.Overdue,
		Paid:           f.Paid,
		PaidAt:         f.PaidAt,
	}
}

type FineListResponse struct {
	Fines            []FineResponse `json:"fines"`
	TotalOutstanding string         `json:"totalOutstanding,omitempty"`
}

type BookRequest struct {
	ISBN            string       `json:"isbn"`
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	Category        string       `json:"category"`
	Publisher       string       `json:"publisher"`
	Language        string       `json:"language"`
	Edition         string       `json:"edition"`
	Description     string       `json:"description"`
	PublicationDate *domain.Date `json:"publicationDate"`
	Quantity        int          `json:"quantity"`
}

func (b BookRequest) toDomain(id int64) *domain.Book {
	return &domain.Book{
		ID:              id,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		Publisher:       b.Publisher,
		Language:        b.Language,
		Edition:         b.Edition,
		Description:     b.Description,
		PublicationDate: b.PublicationDate,
		Quantity:        b.Quantity,
	}
}

type BookResponse struct {
	ID              int64        `json:"id"`
	ISBN            string       `json:"isbn"`
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	Category        string       `json:"category"`
	Publisher       string       `json:"publisher"`
	Language        string       `json:"language"`
	Edition         string       `json:"edition"`
	Description     string       `json:"description"`
	PublicationDate *domain.Date `json:"publicationDate"`
	Quantity        int          `json:"quantity"`
	Available       bool         `json:"available"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func toBookResponse(b domain.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		Publisher:       b.Publisher,
		Language:        b.Language,
		Edition:         b.Edition,
		Description:     b.Description,
		PublicationDate: b.PublicationDate,
		Quantity:        b.Quantity,
		Available:       b.Borrowable(),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookResponses(books []domain.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RolesRequest struct {
	Roles []string `json:"roles"`
}

type UserResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Roles       []string  `json:"roles"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Roles:       u.RoleNames(),
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
	}
}

type TokenResponse struct {
	AccessToken      string        `json:"accessToken"`
	RefreshToken     string        `json:"refreshToken"`
	AccessExpiresAt  time.Time     `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time     `json:"refreshExpiresAt"`
	User             *UserResponse `json:"user,omitempty"`
}

func toTokenResponse(p *service.TokenPair, u *domain.User) TokenResponse {
	resp := TokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
	if u != nil {
		ur := toUserResponse(*u)
		resp.User = &ur
	}
	return resp
}

type NotificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"pageSize"`
}
