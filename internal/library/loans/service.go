package loans

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/platform/ident"
)

const dateLayout = "2006-01-02"

// LoanStore は service が必要とするストア操作。テストではフェイクに差し替える。
type LoanStore interface {
	ExecCreateLoan(ctx context.Context, m *Loan) error
	GetByID(ctx context.Context, loanID int64) (*LoanDetail, error)
	GetByULID(ctx context.Context, ulid string) (*LoanDetail, error)
	ListAll(ctx context.Context) ([]LoanSummary, error)
	ListActive(ctx context.Context) ([]LoanSummary, error)
	FindOverdue(ctx context.Context) ([]LoanSummary, error)
	MarkOverdue(ctx context.Context) (int64, error)
	Delete(ctx context.Context, loanID int64) error
}

type Service struct {
	store LoanStore
	clock ident.Clock
	id    ident.IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		store: NewStore(db),
		clock: ident.RealClock{},
		id:    ident.ULIDGen{},
	}
}

// NewServiceWith は依存を明示的に注入する（テスト用）
func NewServiceWith(store LoanStore, clock ident.Clock, id ident.IDGen) *Service {
	return &Service{store: store, clock: clock, id: id}
}

// 貸出登録。冊数の確認と減算はストアのトランザクション内で行われる。
func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (*LoanResponse, error) {
	if req.BorrowerID <= 0 {
		return nil, liberr.ErrInvalid("borrower_id must be > 0")
	}
	if req.BookID <= 0 {
		return nil, liberr.ErrInvalid("book_id must be > 0")
	}

	loanDate, err := time.Parse(dateLayout, req.LoanDate)
	if err != nil {
		return nil, liberr.ErrInvalid("invalid loan_date format, expected YYYY-MM-DD")
	}
	dueOn, err := time.Parse(dateLayout, req.DueOn)
	if err != nil {
		return nil, liberr.ErrInvalid("invalid due_on format, expected YYYY-MM-DD")
	}
	if dueOn.Before(loanDate) {
		return nil, liberr.ErrInvalid("due_on must not be before loan_date")
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, liberr.ErrInternal(err.Error())
	}

	m := &Loan{
		LoanULID:   idStr,
		BorrowerID: req.BorrowerID,
		BookID:     req.BookID,
		LoanDate:   loanDate,
		DueOn:      dueOn,
	}
	if req.Note != nil && *req.Note != "" {
		m.Note.String = *req.Note
		m.Note.Valid = true
	}

	if err := s.store.ExecCreateLoan(ctx, m); err != nil {
		return nil, err
	}

	resp := buildLoanResponse(m)
	return &resp, nil
}

// 貸出単一取得（ID or ULID）
func (s *Service) GetByKey(ctx context.Context, key string) (*LoanDetailResponse, error) {
	if key == "" {
		return nil, liberr.ErrInvalid("id or ulid is required")
	}

	var d *LoanDetail
	var err error
	if id, perr := strconv.ParseInt(key, 10, 64); perr == nil && id > 0 {
		d, err = s.store.GetByID(ctx, id)
	} else {
		d, err = s.store.GetByULID(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	resp := LoanDetailResponse{
		LoanResponse:  buildLoanResponse(&d.Loan),
		BorrowerName:  d.BorrowerName,
		BorrowerEmail: d.BorrowerEmail,
		BookTitle:     d.BookTitle,
		BookISBN:      d.BookISBN,
	}
	return &resp, nil
}

func (s *Service) ListAll(ctx context.Context) ([]LoanSummaryResponse, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return buildSummaryResponses(rows), nil
}

func (s *Service) ListActive(ctx context.Context) ([]LoanSummaryResponse, error) {
	rows, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return buildSummaryResponses(rows), nil
}

func (s *Service) FindOverdue(ctx context.Context) ([]LoanSummaryResponse, error) {
	rows, err := s.store.FindOverdue(ctx)
	if err != nil {
		return nil, err
	}
	return buildSummaryResponses(rows), nil
}

// MarkOverdue は cron 相当から叩く明示的なメンテナンス操作。
// 一覧取得と混ぜないこと（読み取りに副作用を持たせない）。
func (s *Service) MarkOverdue(ctx context.Context) (*MarkOverdueResponse, error) {
	n, err := s.store.MarkOverdue(ctx)
	if err != nil {
		return nil, err
	}
	return &MarkOverdueResponse{Marked: n}, nil
}

// DeleteByKey は誤登録訂正用の管理操作。
// 在庫の巻き戻しも返却・罰金への連鎖もしないので通常フローでは使わないこと。
func (s *Service) DeleteByKey(ctx context.Context, key string) error {
	if key == "" {
		return liberr.ErrInvalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return s.store.Delete(ctx, id)
	}
	d, err := s.store.GetByULID(ctx, key)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, d.LoanID)
}

// ヘルパー関数
func buildLoanResponse(m *Loan) LoanResponse {
	resp := LoanResponse{
		LoanID:     m.LoanID,
		LoanULID:   m.LoanULID,
		BorrowerID: m.BorrowerID,
		BookID:     m.BookID,
		LoanDate:   m.LoanDate,
		DueOn:      m.DueOn,
		Status:     m.Status,
	}
	if m.Note.Valid {
		val := m.Note.String
		resp.Note = &val
	}
	return resp
}

func buildSummaryResponses(rows []LoanSummary) []LoanSummaryResponse {
	out := make([]LoanSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, LoanSummaryResponse{
			LoanID:   r.LoanID,
			LoanULID: r.LoanULID,
			Borrower: r.BorrowerName,
			Book:     r.BookTitle,
			LoanDate: r.LoanDate,
			DueOn:    r.DueOn,
			Status:   r.Status,
			DaysLate: r.DaysLate,
		})
	}
	return out
}
