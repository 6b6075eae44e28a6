package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mylib-backend/internal/service"
)

type BookHandler struct {
	books service.BookService
}

func NewBookHandler(books service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

func (h *BookHandler) Register(r *mux.Router) {
	r.HandleFunc("/book/all-books", h.List).Methods(http.MethodGet)
	r.HandleFunc("/book/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/book/{bookId}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/admin/book/add", h.Add).Methods(http.MethodPost)
	r.HandleFunc("/admin/book/update/{bookId}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/admin/book/delete/{bookId}", h.Delete).Methods(http.MethodDelete)
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListBooks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.SearchBooks(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*book))
}

func (h *BookHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	book := req.toDomain(0)
	if err := h.books.AddBook(r.Context(), book); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookResponse(*book))
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	book := req.toDomain(id)
	if err := h.books.UpdateBook(r.Context(), book); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*book))
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.books.DeleteBook(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
