package catalog

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/ketabino/bookstore/internal/domain"
)

// BookRepository reads the authoritative price/availability snapshot
// used to validate and price a checkout.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// FindByIDs returns the books matching ids. Ids without a matching row
// are simply absent from the result; the caller decides whether that
// is an error.
func (r *BookRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, base_price, is_active
		FROM books
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var books []domain.Book
	for rows.Next() {
		var book domain.Book
		if err := rows.Scan(&book.ID, &book.BasePrice, &book.IsActive); err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return books, nil
}
