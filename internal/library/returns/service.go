package returns

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/platform/ident"
)

const dateLayout = "2006-01-02"

// ReturnStore は service が必要とするストア操作。テストではフェイクに差し替える。
type ReturnStore interface {
	ExecCreateReturn(ctx context.Context, m *Return, fineULID string, dailyRate decimal.Decimal) (*IssuedFine, error)
	GetByID(ctx context.Context, returnID int64) (*ReturnDetail, error)
	GetByULID(ctx context.Context, ulid string) (*ReturnDetail, error)
	GetByLoanID(ctx context.Context, loanID int64) (*ReturnDetail, error)
	ListAll(ctx context.Context) ([]ReturnSummary, error)
}

type Service struct {
	store     ReturnStore
	clock     ident.Clock
	id        ident.IDGen
	dailyRate decimal.Decimal
}

func NewService(db *sql.DB, dailyRate decimal.Decimal) *Service {
	return &Service{
		store:     NewStore(db),
		clock:     ident.RealClock{},
		id:        ident.ULIDGen{},
		dailyRate: dailyRate,
	}
}

// NewServiceWith は依存を明示的に注入する（テスト用）
func NewServiceWith(store ReturnStore, clock ident.Clock, id ident.IDGen, dailyRate decimal.Decimal) *Service {
	return &Service{store: store, clock: clock, id: id, dailyRate: dailyRate}
}

// 返却登録。貸出の確定・在庫の復元・遅延時の罰金発行までを
// ストアの単一トランザクションで行う。
func (s *Service) RecordReturn(ctx context.Context, req CreateReturnRequest) (*ReturnResponse, error) {
	if req.LoanID <= 0 {
		return nil, liberr.ErrInvalid("loan_id must be > 0")
	}
	var returnedOn time.Time
	if req.ReturnedOn == "" {
		// 省略時は当日扱い
		returnedOn = s.clock.Now()
	} else {
		var perr error
		returnedOn, perr = time.Parse(dateLayout, req.ReturnedOn)
		if perr != nil {
			return nil, liberr.ErrInvalid("invalid returned_on format, expected YYYY-MM-DD")
		}
	}
	if !validCondition(req.BookCondition) {
		return nil, liberr.ErrInvalid("book_condition must be one of good, damaged, lost")
	}

	retULID, err := s.id.New()
	if err != nil {
		return nil, liberr.ErrInternal(err.Error())
	}
	// 罰金が発行されなければ捨てられるだけなので先に採番しておく
	fineULID, err := s.id.New()
	if err != nil {
		return nil, liberr.ErrInternal(err.Error())
	}

	m := &Return{
		ReturnULID:    retULID,
		LoanID:        req.LoanID,
		ReturnedOn:    returnedOn,
		BookCondition: req.BookCondition,
	}
	if req.Note != nil && *req.Note != "" {
		m.Note.String = *req.Note
		m.Note.Valid = true
	}

	issued, err := s.store.ExecCreateReturn(ctx, m, fineULID, s.dailyRate)
	if err != nil {
		return nil, err
	}

	resp := buildReturnResponse(m)
	if issued != nil {
		resp.Fine = &IssuedFineResponse{
			FineID:   issued.FineID,
			FineULID: issued.FineULID,
			Amount:   issued.Amount.StringFixed(2),
		}
	}
	return &resp, nil
}

// 返却単一取得（ID or ULID）。見つからなければ (nil, nil)。
func (s *Service) GetByKey(ctx context.Context, key string) (*ReturnDetailResponse, error) {
	if key == "" {
		return nil, liberr.ErrInvalid("id or ulid is required")
	}

	var d *ReturnDetail
	var err error
	if id, perr := strconv.ParseInt(key, 10, 64); perr == nil && id > 0 {
		d, err = s.store.GetByID(ctx, id)
	} else {
		d, err = s.store.GetByULID(ctx, key)
	}
	if err != nil || d == nil {
		return nil, err
	}
	return buildDetailResponse(d), nil
}

// 貸出IDからの返却取得。見つからなければ (nil, nil)。
func (s *Service) GetByLoanID(ctx context.Context, loanID int64) (*ReturnDetailResponse, error) {
	if loanID <= 0 {
		return nil, liberr.ErrInvalid("loan_id must be > 0")
	}
	d, err := s.store.GetByLoanID(ctx, loanID)
	if err != nil || d == nil {
		return nil, err
	}
	return buildDetailResponse(d), nil
}

func (s *Service) ListAll(ctx context.Context) ([]ReturnSummaryResponse, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReturnSummaryResponse{
			ReturnID:      r.ReturnID,
			ReturnULID:    r.ReturnULID,
			LoanID:        r.LoanID,
			Borrower:      r.BorrowerName,
			Book:          r.BookTitle,
			LoanDate:      r.LoanDate,
			ReturnedOn:    r.ReturnedOn,
			LateDays:      r.LateDays,
			BookCondition: r.BookCondition,
		})
	}
	return out, nil
}

// ヘルパー関数
func buildReturnResponse(m *Return) ReturnResponse {
	resp := ReturnResponse{
		ReturnID:      m.ReturnID,
		ReturnULID:    m.ReturnULID,
		LoanID:        m.LoanID,
		ReturnedOn:    m.ReturnedOn,
		LateDays:      m.LateDays,
		BookCondition: m.BookCondition,
	}
	if m.Note.Valid {
		val := m.Note.String
		resp.Note = &val
	}
	return resp
}

func buildDetailResponse(d *ReturnDetail) *ReturnDetailResponse {
	return &ReturnDetailResponse{
		ReturnResponse: buildReturnResponse(&d.Return),
		BorrowerID:     d.BorrowerID,
		BookID:         d.BookID,
		BorrowerName:   d.BorrowerName,
		BookTitle:      d.BookTitle,
	}
}
