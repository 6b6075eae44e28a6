package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidBook = errors.New("invalid book")

type Book struct {
	ID              int64     `db:"id"`
	ISBN            string    `db:"isbn"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	Category        string    `db:"category"`
	Publisher       string    `db:"publisher"`
	Language        string    `db:"language"`
	Edition         string    `db:"edition"`
	Description     string    `db:"description"`
	PublicationDate *Date     `db:"publication_date"`
	Quantity        int       `db:"quantity"`
	Available       bool      `db:"available"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Normalize trims text fields and derives the availability flag from the
// shelf count.
func (b *Book) Normalize() {
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Category = strings.TrimSpace(b.Category)
	b.Available = b.Quantity > 0
}

func (b *Book) Validate() error {
	switch {
	case b.ISBN == "":
		return errors.Join(ErrInvalidBook, errors.New("isbn is required"))
	case b.Title == "":
		return errors.Join(ErrInvalidBook, errors.New("title is required"))
	case b.Author == "":
		return errors.Join(ErrInvalidBook, errors.New("author is required"))
	case b.Quantity < 0:
		return errors.Join(ErrInvalidBook, errors.New("quantity cannot be negative"))
	}
	return nil
}

// Borrowable is the only availability signal lending decisions use.
func (b *Book) Borrowable() bool { return b.Quantity > 0 }
