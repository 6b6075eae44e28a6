package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type bookService struct {
	books    repository.BookRepository
	tx       repository.Transactor
	notifier LoanNotifier
	policy   LendingPolicy
}

func NewBookService(books repository.BookRepository, tx repository.Transactor, notifier LoanNotifier, policy LendingPolicy) BookService {
	return &bookService{books: books, tx: tx, notifier: notifier, policy: policy}
}

func (s *bookService) AddBook(ctx context.Context, book *domain.Book) error {
	book.Normalize()
	if err := book.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.books.Create(ctx, book); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicateISBN
		}
		return err
	}
	logger.InfoContext(ctx, "Book added", "bookID", book.ID, "isbn", book.ISBN)
	return nil
}

func (s *bookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrBookNotFound)
	}
	return book, nil
}

// UpdateBook replaces the catalog entry. The quantity in book is the
// wanted shelf count; the difference to the stored count is applied as a
// delta so loans approved meanwhile are not undone. Added copies go to the
// waiting queue first, in the same transaction.
func (s *bookService) UpdateBook(ctx context.Context, book *domain.Book) error {
	book.Normalize()
	if err := book.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var promoted []promotion
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Books.GetByID(ctx, book.ID)
		if err != nil {
			return mapRepoErr(err, ErrBookNotFound)
		}
		book.CreatedAt = current.CreatedAt
		if err := repos.Books.Update(ctx, book); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateISBN
			}
			return mapRepoErr(err, ErrBookNotFound)
		}

		delta := book.Quantity - current.Quantity
		if delta == 0 {
			return nil
		}
		count, err := repos.Books.AdjustQuantity(ctx, book.ID, delta)
		if errors.Is(err, repository.ErrNoCopiesLeft) {
			return fmt.Errorf("%w: cannot remove %d copies, fewer are on the shelf", ErrInvalidInput, -delta)
		}
		if err != nil {
			return mapRepoErr(err, ErrBookNotFound)
		}
		book.Quantity = count
		if delta < 0 {
			return nil
		}

		promoted, err = promoteQueue(ctx, repos, book.ID, s.policy.MaxActiveLoans)
		book.Quantity -= len(promoted)
		return err
	})
	if err != nil {
		return err
	}
	book.Available = book.Borrowable()

	if len(promoted) > 0 {
		logger.InfoContext(ctx, "Restock promoted reservations", "bookID", book.ID, "count", len(promoted))
	}
	announcePromotions(ctx, s.notifier, promoted)
	return nil
}

func (s *bookService) DeleteBook(ctx context.Context, id int64) error {
	err := s.books.Delete(ctx, id)
	if errors.Is(err, repository.ErrReferenced) {
		return ErrBookInUse
	}
	return mapRepoErr(err, ErrBookNotFound)
}

func (s *bookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.books.List(ctx)
}

func (s *bookService) SearchBooks(ctx context.Context, query string) ([]domain.Book, error) {
	if strings.TrimSpace(query) == "" {
		return s.books.List(ctx)
	}
	return s.books.Search(ctx, query)
}
