package books

import (
	"context"
	"database/sql"

	"bibliotecas-backend/internal/library/liberr"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

func (s *Store) Insert(ctx context.Context, m *Book) error {
	const q = `
	INSERT INTO books
	(title, isbn, author_id, publisher_id, category_id, language_id, location_id,
	 publication_year, page_count, total_copies, available_copies, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		m.Title, m.ISBN,
		m.AuthorID, m.PublisherID, m.CategoryID, m.LanguageID, m.LocationID,
		m.PublicationYear, m.PageCount,
		m.TotalCopies, m.AvailableCopies,
		m.Description,
	)
	if err != nil {
		return liberr.FromStore(err)
	}
	id, _ := res.LastInsertId()
	m.BookID = id
	return nil
}

const bookSelect = `
	SELECT book_id, title, isbn, author_id, publisher_id, category_id, language_id,
	       location_id, publication_year, page_count, total_copies, available_copies,
	       description, created_at
	FROM books`

func scanBook(row *sql.Row) (*Book, error) {
	var m Book
	err := row.Scan(
		&m.BookID, &m.Title, &m.ISBN, &m.AuthorID, &m.PublisherID, &m.CategoryID,
		&m.LanguageID, &m.LocationID, &m.PublicationYear, &m.PageCount,
		&m.TotalCopies, &m.AvailableCopies, &m.Description, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, liberr.ErrNotFound("book not found")
		}
		return nil, liberr.FromStore(err)
	}
	return &m, nil
}

func (s *Store) GetByID(ctx context.Context, bookID int64) (*Book, error) {
	return scanBook(s.db.QueryRowContext(ctx, bookSelect+` WHERE book_id = ?`, bookID))
}

func (s *Store) ListAll(ctx context.Context) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, bookSelect+` ORDER BY title ASC`)
	if err != nil {
		return nil, liberr.FromStore(err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var m Book
		if err := rows.Scan(
			&m.BookID, &m.Title, &m.ISBN, &m.AuthorID, &m.PublisherID, &m.CategoryID,
			&m.LanguageID, &m.LocationID, &m.PublicationYear, &m.PageCount,
			&m.TotalCopies, &m.AvailableCopies, &m.Description, &m.CreatedAt,
		); err != nil {
			return nil, liberr.FromStore(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, liberr.FromStore(err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, m *Book) error {
	const q = `
	UPDATE books
	SET title = ?, isbn = ?, author_id = ?, publisher_id = ?, category_id = ?,
	    language_id = ?, location_id = ?, publication_year = ?, page_count = ?,
	    total_copies = ?, available_copies = ?, description = ?
	WHERE book_id = ?`
	res, err := s.db.ExecContext(ctx, q,
		m.Title, m.ISBN,
		m.AuthorID, m.PublisherID, m.CategoryID, m.LanguageID, m.LocationID,
		m.PublicationYear, m.PageCount,
		m.TotalCopies, m.AvailableCopies,
		m.Description,
		m.BookID,
	)
	if err != nil {
		return liberr.FromStore(err)
	}
	// 値が全て同じ場合 MySQL は affected=0 を返すので、ここでは存在確認に使わない
	_, _ = res.RowsAffected()
	return nil
}

func (s *Store) Delete(ctx context.Context, bookID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, bookID)
	if err != nil {
		return liberr.FromStore(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return liberr.ErrNotFound("book not found")
	}
	return nil
}
