package borrowers

import (
	"context"
	"database/sql"

	"bibliotecas-backend/internal/library/fines"
	"bibliotecas-backend/internal/library/liberr"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

func (s *Store) Insert(ctx context.Context, m *Borrower) error {
	const q = `
	INSERT INTO borrowers
	(first_name, last_name, email, phone, address, birth_date, kind, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		m.FirstName, m.LastName, m.Email,
		m.Phone, m.Address, m.BirthDate,
		m.Kind, m.Status,
	)
	if err != nil {
		return liberr.FromStore(err)
	}
	id, _ := res.LastInsertId()
	m.BorrowerID = id
	return nil
}

// GetDetailByID は未払い罰金の合計つきで1件取得する
func (s *Store) GetDetailByID(ctx context.Context, borrowerID int64) (*BorrowerDetail, error) {
	const q = `
	SELECT
		b.borrower_id, b.first_name, b.last_name, b.email, b.phone, b.address,
		b.birth_date, b.kind, b.status, b.registered_at,
		COALESCE((SELECT SUM(m.amount) FROM fines m
		          WHERE m.borrower_id = b.borrower_id AND m.status = ?), 0)
	FROM borrowers b
	WHERE b.borrower_id = ?`

	var d BorrowerDetail
	err := s.db.QueryRowContext(ctx, q, fines.StatusPending, borrowerID).Scan(
		&d.BorrowerID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.Address,
		&d.BirthDate, &d.Kind, &d.Status, &d.RegisteredAt,
		&d.PendingFineTotal,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, liberr.ErrNotFound("borrower not found")
		}
		return nil, liberr.FromStore(err)
	}
	return &d, nil
}

func (s *Store) ListAll(ctx context.Context) ([]Borrower, error) {
	const q = `
	SELECT borrower_id, first_name, last_name, email, phone, address,
	       birth_date, kind, status, registered_at
	FROM borrowers
	ORDER BY first_name ASC, last_name ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, liberr.FromStore(err)
	}
	defer rows.Close()

	var out []Borrower
	for rows.Next() {
		var m Borrower
		if err := rows.Scan(
			&m.BorrowerID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.Address,
			&m.BirthDate, &m.Kind, &m.Status, &m.RegisteredAt,
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

func (s *Store) Update(ctx context.Context, m *Borrower) error {
	const q = `
	UPDATE borrowers
	SET first_name = ?, last_name = ?, email = ?, phone = ?, address = ?,
	    birth_date = ?, kind = ?, status = ?
	WHERE borrower_id = ?`
	_, err := s.db.ExecContext(ctx, q,
		m.FirstName, m.LastName, m.Email,
		m.Phone, m.Address, m.BirthDate,
		m.Kind, m.Status,
		m.BorrowerID,
	)
	if err != nil {
		return liberr.FromStore(err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, borrowerID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM borrowers WHERE borrower_id = ?`, borrowerID)
	if err != nil {
		return liberr.FromStore(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return liberr.ErrNotFound("borrower not found")
	}
	return nil
}
