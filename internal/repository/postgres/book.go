package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

const bookColumns = `id, isbn, title, author, category, publisher, language, edition, description, publication_date, quantity, available, created_at, updated_at`

type bookRepository struct {
	q sqlx.ExtContext
}

func NewBookRepository(q sqlx.ExtContext) repository.BookRepository {
	return &bookRepository{q: q}
}

func (r *bookRepository) Create(ctx context.Context, b *domain.Book) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	query := `INSERT INTO books (isbn, title, author, category, publisher, language, edition, description, publication_date, quantity, available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	logger.DatabaseCall("INSERT", "books", "isbn", b.ISBN)
	err := r.q.QueryRowxContext(ctx, query, b.ISBN, b.Title, b.Author, b.Category, b.Publisher, b.Language, b.Edition, b.Description, b.PublicationDate, b.Quantity, b.Available, now, now).Scan(&b.ID)
	logger.DatabaseResult("INSERT", 1, err, "bookID", b.ID)
	return translateError(err)
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	var b domain.Book
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &b, query, id); err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

func (r *bookRepository) Update(ctx context.Context, b *domain.Book) error {
	b.UpdatedAt = time.Now().UTC()
	query := `UPDATE books SET isbn=$1, title=$2, author=$3, category=$4, publisher=$5, language=$6, edition=$7, description=$8,
	          publication_date=$9, updated_at=$10 WHERE id=$11`
	result, err := r.q.ExecContext(ctx, query, b.ISBN, b.Title, b.Author, b.Category, b.Publisher, b.Language, b.Edition, b.Description, b.PublicationDate, b.UpdatedAt, b.ID)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result, repository.ErrNotFound)
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result, repository.ErrNotFound)
}

func (r *bookRepository) List(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY title, id`
	if err := sqlx.SelectContext(ctx, r.q, &books, query); err != nil {
		return nil, translateError(err)
	}
	return books, nil
}

// Search matches the query against title, author, isbn and category.
func (r *bookRepository) Search(ctx context.Context, query string) ([]domain.Book, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	sqlStr, args, err := dialect.From("books").
		Prepared(true).
		Select(goqu.L(bookColumns)).
		Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").ILike(pattern),
			goqu.C("category").ILike(pattern),
		)).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book search: %w", err)
	}

	var books []domain.Book
	if err := sqlx.SelectContext(ctx, r.q, &books, sqlStr, args...); err != nil {
		return nil, translateError(err)
	}
	return books, nil
}

func (r *bookRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (int, error) {
	query := `UPDATE books SET quantity = quantity + $1, available = quantity + $1 > 0, updated_at = $2
	          WHERE id = $3 AND quantity + $1 >= 0 RETURNING quantity`
	logger.DatabaseCall("UPDATE", "books", "bookID", id, "delta", delta)
	var quantity int
	err := r.q.QueryRowxContext(ctx, query, delta, time.Now().UTC(), id).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := r.q.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
			return 0, translateError(err)
		}
		if !exists {
			return 0, repository.ErrNotFound
		}
		return 0, repository.ErrNoCopiesLeft
	}
	logger.DatabaseResult("UPDATE", 1, err, "bookID", id, "quantity", quantity)
	if err != nil {
		return 0, translateError(err)
	}
	return quantity, nil
}
