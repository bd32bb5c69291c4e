package fines

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

// Insert は手動罰金の登録。遅延罰金は返却トランザクションが直接INSERTする。
func (s *Store) Insert(ctx context.Context, m *Fine) error {
	const q = `
	INSERT INTO fines
	(fine_ulid, return_id, borrower_id, amount, reason, description, status, issued_on)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		m.FineULID,
		nullInt64OrNil(m.ReturnID),
		m.BorrowerID,
		m.Amount.StringFixed(2),
		m.Reason,
		nullStrOrNil(m.Description),
		m.Status,
		m.IssuedOn,
	)
	if err != nil {
		return liberr.FromStore(err)
	}
	id, _ := res.LastInsertId()
	m.FineID = id
	return nil
}

// lockFineStatus: 状態遷移前に現在の status をロックして読む
func lockFineStatus(ctx context.Context, tx db.DBTX, fineID int64) (string, error) {
	const q = `SELECT status FROM fines WHERE fine_id = ? FOR UPDATE`
	var status string
	if err := tx.QueryRowContext(ctx, q, fineID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return "", liberr.ErrNotFound("fine not found")
		}
		return "", liberr.FromStore(err)
	}
	return status, nil
}

// ExecRecordPayment: pending の罰金のみ paid に遷移できる。支払い日は必須。
func (s *Store) ExecRecordPayment(ctx context.Context, fineID int64, paidOn time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		status, err := lockFineStatus(ctx, tx, fineID)
		if err != nil {
			return err
		}
		if status != StatusPending {
			return liberr.ErrInvalidState("fine is already " + status)
		}
		const q = `UPDATE fines SET status = ?, paid_on = ? WHERE fine_id = ?`
		if _, err := tx.ExecContext(ctx, q, StatusPaid, paidOn, fineID); err != nil {
			return liberr.FromStore(err)
		}
		return nil
	})
}

// ExecWaive: pending の罰金のみ waived に遷移できる。支払い日は持たない。
func (s *Store) ExecWaive(ctx context.Context, fineID int64) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		status, err := lockFineStatus(ctx, tx, fineID)
		if err != nil {
			return err
		}
		if status != StatusPending {
			return liberr.ErrInvalidState("fine is already " + status)
		}
		const q = `UPDATE fines SET status = ? WHERE fine_id = ?`
		if _, err := tx.ExecContext(ctx, q, StatusWaived, fineID); err != nil {
			return liberr.FromStore(err)
		}
		return nil
	})
}

// ---- Queries ----

const summarySelect = `
	SELECT
		m.fine_id, m.fine_ulid, m.return_id, m.borrower_id, m.amount, m.reason,
		m.description, m.status, m.issued_on, m.paid_on,
		CONCAT(b.first_name, ' ', b.last_name)
	FROM fines m
	INNER JOIN borrowers b ON m.borrower_id = b.borrower_id`

func scanSummary(row *sql.Row) (*FineSummary, error) {
	var d FineSummary
	err := row.Scan(
		&d.FineID, &d.FineULID, &d.ReturnID, &d.BorrowerID, &d.Amount, &d.Reason,
		&d.Description, &d.Status, &d.IssuedOn, &d.PaidOn,
		&d.BorrowerName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, liberr.ErrNotFound("fine not found")
		}
		return nil, liberr.FromStore(err)
	}
	return &d, nil
}

func (s *Store) GetByID(ctx context.Context, fineID int64) (*FineSummary, error) {
	return scanSummary(s.db.QueryRowContext(ctx, summarySelect+` WHERE m.fine_id = ?`, fineID))
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*FineSummary, error) {
	return scanSummary(s.db.QueryRowContext(ctx, summarySelect+` WHERE m.fine_ulid = ?`, ulid))
}

func (s *Store) ListAll(ctx context.Context) ([]FineSummary, error) {
	return s.querySummaries(ctx, summarySelect+` ORDER BY m.issued_on DESC`)
}

// PendingByBorrower: 未払いのみ、発行日の古い順
func (s *Store) PendingByBorrower(ctx context.Context, borrowerID int64) ([]FineSummary, error) {
	return s.querySummaries(ctx,
		summarySelect+` WHERE m.borrower_id = ? AND m.status = ? ORDER BY m.issued_on ASC`,
		borrowerID, StatusPending)
}

// TotalPendingByBorrower: 未払い合計。1件もなければ 0（不在ではない）。
func (s *Store) TotalPendingByBorrower(ctx context.Context, borrowerID int64) (decimal.Decimal, error) {
	const q = `
	SELECT COALESCE(SUM(amount), 0)
	FROM fines
	WHERE borrower_id = ? AND status = ?`
	var total decimal.Decimal
	if err := s.db.QueryRowContext(ctx, q, borrowerID, StatusPending).Scan(&total); err != nil {
		return decimal.Zero, liberr.FromStore(err)
	}
	return total, nil
}

// Delete は管理者向けの無条件削除
func (s *Store) Delete(ctx context.Context, fineID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fines WHERE fine_id = ?`, fineID)
	if err != nil {
		return liberr.FromStore(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return liberr.ErrNotFound("fine not found")
	}
	return nil
}

func (s *Store) querySummaries(ctx context.Context, q string, args ...any) ([]FineSummary, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, liberr.FromStore(err)
	}
	defer rows.Close()

	var out []FineSummary
	for rows.Next() {
		var m FineSummary
		if err := rows.Scan(
			&m.FineID, &m.FineULID, &m.ReturnID, &m.BorrowerID, &m.Amount, &m.Reason,
			&m.Description, &m.Status, &m.IssuedOn, &m.PaidOn,
			&m.BorrowerName,
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

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

func nullInt64OrNil(ni sql.NullInt64) any {
	if ni.Valid {
		return ni.Int64
	}
	return nil
}
