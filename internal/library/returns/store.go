package returns

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"bibliotecas-backend/internal/library/fines"
	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/library/loans"
	"bibliotecas-backend/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

// ---- Transactional Methods ----

// ExecCreateReturn は返却トランザクション全体を実行する。
//  1. 貸出行をロックして取得（未存在なら NOT_FOUND）
//  2. 返却済みなら ALREADY_RETURNED
//  3. 遅延日数を計算して返却をINSERT
//  4. 貸出を returned に更新
//  5. 在庫を1冊戻す
//  6. 遅延していれば同一トランザクション内で罰金をINSERT
//
// どこかで失敗すれば全書き込みがロールバックされる。
func (s *Store) ExecCreateReturn(ctx context.Context, m *Return, fineULID string, dailyRate decimal.Decimal) (*IssuedFine, error) {
	var issued *IssuedFine

	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		// 貸出行ロック。二重返却の競合はここで直列化される
		const loanQ = `
		SELECT loan_id, borrower_id, book_id, due_on, status
		FROM loans WHERE loan_id = ? FOR UPDATE`
		var (
			loanID     int64
			borrowerID int64
			bookID     int64
			dueOn      sql.NullTime
			status     string
		)
		if err := tx.QueryRowContext(ctx, loanQ, m.LoanID).Scan(
			&loanID, &borrowerID, &bookID, &dueOn, &status,
		); err != nil {
			if err == sql.ErrNoRows {
				return liberr.ErrNotFound("loan not found")
			}
			return liberr.FromStore(err)
		}

		if status == loans.StatusReturned {
			return liberr.ErrAlreadyReturned("this loan was already returned")
		}

		m.LateDays = lateDaysBetween(m.ReturnedOn, dueOn.Time)

		const retQ = `
		INSERT INTO returns
		(return_ulid, loan_id, returned_on, late_days, book_condition, note)
		VALUES (?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, retQ,
			m.ReturnULID, m.LoanID, m.ReturnedOn, m.LateDays, m.BookCondition, nullStrOrNil(m.Note),
		)
		if err != nil {
			return liberr.FromStore(err)
		}
		id, _ := res.LastInsertId()
		m.ReturnID = id

		const updQ = `UPDATE loans SET status = ? WHERE loan_id = ?`
		if _, err := tx.ExecContext(ctx, updQ, loans.StatusReturned, m.LoanID); err != nil {
			return liberr.FromStore(err)
		}

		const bookQ = `UPDATE books SET available_copies = available_copies + 1 WHERE book_id = ?`
		bres, err := tx.ExecContext(ctx, bookQ, bookID)
		if err != nil {
			return liberr.FromStore(err)
		}
		if aff, _ := bres.RowsAffected(); aff != 1 {
			return liberr.ErrInternal("failed to update books.available_copies")
		}

		if m.LateDays > 0 {
			amount := dailyRate.Mul(decimal.NewFromInt(int64(m.LateDays)))

			const fineQ = `
			INSERT INTO fines
			(fine_ulid, return_id, borrower_id, amount, reason, description, status, issued_on)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
			fres, err := tx.ExecContext(ctx, fineQ,
				fineULID,
				m.ReturnID,
				borrowerID,
				amount.StringFixed(2),
				fines.ReasonLateReturn,
				fmt.Sprintf("Fine for %d days late", m.LateDays),
				fines.StatusPending,
				m.ReturnedOn,
			)
			if err != nil {
				return liberr.FromStore(err)
			}
			fineID, _ := fres.LastInsertId()
			issued = &IssuedFine{FineID: fineID, FineULID: fineULID, Amount: amount}
		}

		return nil
	})
	if err != nil {
		return nil, liberr.FromStore(err)
	}
	return issued, nil
}

// ---- Queries ----

const detailSelect = `
	SELECT
		d.return_id, d.return_ulid, d.loan_id, d.returned_on, d.late_days, d.book_condition, d.note,
		l.borrower_id, l.book_id,
		CONCAT(b.first_name, ' ', b.last_name), k.title
	FROM returns d
	INNER JOIN loans l ON d.loan_id = l.loan_id
	INNER JOIN borrowers b ON l.borrower_id = b.borrower_id
	INNER JOIN books k ON l.book_id = k.book_id`

// scanDetail: 見つからない場合は (nil, nil)。不在はエラーではない。
func scanDetail(row *sql.Row) (*ReturnDetail, error) {
	var d ReturnDetail
	err := row.Scan(
		&d.ReturnID, &d.ReturnULID, &d.LoanID, &d.ReturnedOn, &d.LateDays, &d.BookCondition, &d.Note,
		&d.BorrowerID, &d.BookID, &d.BorrowerName, &d.BookTitle,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, liberr.FromStore(err)
	}
	return &d, nil
}

func (s *Store) GetByID(ctx context.Context, returnID int64) (*ReturnDetail, error) {
	return scanDetail(s.db.QueryRowContext(ctx, detailSelect+` WHERE d.return_id = ?`, returnID))
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*ReturnDetail, error) {
	return scanDetail(s.db.QueryRowContext(ctx, detailSelect+` WHERE d.return_ulid = ?`, ulid))
}

func (s *Store) GetByLoanID(ctx context.Context, loanID int64) (*ReturnDetail, error) {
	return scanDetail(s.db.QueryRowContext(ctx, detailSelect+` WHERE d.loan_id = ?`, loanID))
}

func (s *Store) ListAll(ctx context.Context) ([]ReturnSummary, error) {
	const q = `
	SELECT
		d.return_id, d.return_ulid, d.loan_id,
		CONCAT(b.first_name, ' ', b.last_name) AS borrower,
		k.title AS book,
		l.loan_date, d.returned_on, d.late_days, d.book_condition
	FROM returns d
	INNER JOIN loans l ON d.loan_id = l.loan_id
	INNER JOIN borrowers b ON l.borrower_id = b.borrower_id
	INNER JOIN books k ON l.book_id = k.book_id
	ORDER BY d.returned_on DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, liberr.FromStore(err)
	}
	defer rows.Close()

	var out []ReturnSummary
	for rows.Next() {
		var m ReturnSummary
		if err := rows.Scan(
			&m.ReturnID, &m.ReturnULID, &m.LoanID, &m.BorrowerName, &m.BookTitle,
			&m.LoanDate, &m.ReturnedOn, &m.LateDays, &m.BookCondition,
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
