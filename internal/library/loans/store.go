package loans

import (
	"context"
	"database/sql"

	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

// lockBookRow: 在庫行をロックして冊数を取得する
// createLoan の「確認→減算」を直列化するため必ず FOR UPDATE で読む
func lockBookRow(ctx context.Context, tx db.DBTX, bookID int64) (available int, err error) {
	const q = `SELECT available_copies FROM books WHERE book_id = ? FOR UPDATE`
	if err = tx.QueryRowContext(ctx, q, bookID).Scan(&available); err != nil {
		if err == sql.ErrNoRows {
			return 0, liberr.ErrNotFound("book not found")
		}
		return 0, liberr.FromStore(err)
	}
	return available, nil
}

func addAvailableCopies(ctx context.Context, tx db.DBTX, bookID int64, delta int) error {
	const q = `UPDATE books SET available_copies = available_copies + ? WHERE book_id = ?`
	res, err := tx.ExecContext(ctx, q, delta, bookID)
	if err != nil {
		return liberr.FromStore(err)
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return liberr.ErrInternal("failed to update books.available_copies")
	}
	return nil
}

// ---- Transactional Methods ----

// ExecCreateLoan は貸出作成トランザクション全体を実行する。
// 在庫行ロック → 冊数チェック → 減算 → 貸出INSERT を1トランザクションで行い、
// どれかが失敗すれば部分書き込みは残らない。
func (s *Store) ExecCreateLoan(ctx context.Context, m *Loan) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		available, err := lockBookRow(ctx, tx, m.BookID)
		if err != nil {
			return err
		}
		if available < 1 {
			return liberr.ErrUnavailable("no available copies for this book")
		}
		if err := addAvailableCopies(ctx, tx, m.BookID, -1); err != nil {
			return err
		}

		const q = `
		INSERT INTO loans
		(loan_ulid, borrower_id, book_id, loan_date, due_on, status, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q,
			m.LoanULID,
			m.BorrowerID,
			m.BookID,
			m.LoanDate,
			m.DueOn,
			StatusActive,
			nullStrOrNil(m.Note),
		)
		if err != nil {
			return liberr.FromStore(err)
		}
		id, _ := res.LastInsertId()
		m.LoanID = id
		m.Status = StatusActive
		return nil
	})
}

// ---- Queries ----

const detailSelect = `
	SELECT
		l.loan_id, l.loan_ulid, l.borrower_id, l.book_id,
		l.loan_date, l.due_on, l.status, l.note,
		CONCAT(b.first_name, ' ', b.last_name), b.email,
		k.title, k.isbn
	FROM loans l
	INNER JOIN borrowers b ON l.borrower_id = b.borrower_id
	INNER JOIN books k ON l.book_id = k.book_id`

func scanDetail(row *sql.Row) (*LoanDetail, error) {
	var d LoanDetail
	err := row.Scan(
		&d.LoanID, &d.LoanULID, &d.BorrowerID, &d.BookID,
		&d.LoanDate, &d.DueOn, &d.Status, &d.Note,
		&d.BorrowerName, &d.BorrowerEmail,
		&d.BookTitle, &d.BookISBN,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, liberr.ErrNotFound("loan not found")
		}
		return nil, liberr.FromStore(err)
	}
	return &d, nil
}

func (s *Store) GetByID(ctx context.Context, loanID int64) (*LoanDetail, error) {
	return scanDetail(s.db.QueryRowContext(ctx, detailSelect+` WHERE l.loan_id = ?`, loanID))
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*LoanDetail, error) {
	return scanDetail(s.db.QueryRowContext(ctx, detailSelect+` WHERE l.loan_ulid = ?`, ulid))
}

const summarySelect = `
	SELECT
		l.loan_id, l.loan_ulid,
		CONCAT(b.first_name, ' ', b.last_name) AS borrower,
		k.title AS book,
		l.loan_date, l.due_on, l.status,
		GREATEST(DATEDIFF(CURDATE(), l.due_on), 0) AS days_late
	FROM loans l
	INNER JOIN borrowers b ON l.borrower_id = b.borrower_id
	INNER JOIN books k ON l.book_id = k.book_id`

func (s *Store) querySummaries(ctx context.Context, q string, args ...any) ([]LoanSummary, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, liberr.FromStore(err)
	}
	defer rows.Close()

	var out []LoanSummary
	for rows.Next() {
		var m LoanSummary
		if err := rows.Scan(
			&m.LoanID, &m.LoanULID, &m.BorrowerName, &m.BookTitle,
			&m.LoanDate, &m.DueOn, &m.Status, &m.DaysLate,
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

func (s *Store) ListAll(ctx context.Context) ([]LoanSummary, error) {
	return s.querySummaries(ctx, summarySelect+` ORDER BY l.loan_date DESC`)
}

// ListActive: 返却期限が近い順
func (s *Store) ListActive(ctx context.Context) ([]LoanSummary, error) {
	return s.querySummaries(ctx,
		summarySelect+` WHERE l.status = ? ORDER BY l.due_on ASC`, StatusActive)
}

// FindOverdue は純粋な読み取り。延滞判定は保存済みフラグではなく
// due_on < CURDATE() から導出する（フラグ永続化は MarkOverdue のみ）。
func (s *Store) FindOverdue(ctx context.Context) ([]LoanSummary, error) {
	return s.querySummaries(ctx,
		summarySelect+` WHERE l.status IN (?, ?) AND l.due_on < CURDATE() ORDER BY l.due_on ASC`,
		StatusActive, StatusOverdue)
}

// MarkOverdue: 期限切れの active 貸出を一括で overdue にするメンテナンス操作
func (s *Store) MarkOverdue(ctx context.Context) (int64, error) {
	const q = `UPDATE loans SET status = ? WHERE status = ? AND due_on < CURDATE()`
	res, err := s.db.ExecContext(ctx, q, StatusOverdue, StatusActive)
	if err != nil {
		return 0, liberr.FromStore(err)
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

// Delete は管理者向けの無条件削除。在庫は戻さず返却・罰金にも連鎖しない。
func (s *Store) Delete(ctx context.Context, loanID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE loan_id = ?`, loanID)
	if err != nil {
		return liberr.FromStore(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return liberr.ErrNotFound("loan not found")
	}
	return nil
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}
