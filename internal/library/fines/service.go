package fines

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

// FineStore は service が必要とするストア操作。テストではフェイクに差し替える。
type FineStore interface {
	Insert(ctx context.Context, m *Fine) error
	ExecRecordPayment(ctx context.Context, fineID int64, paidOn time.Time) error
	ExecWaive(ctx context.Context, fineID int64) error
	GetByID(ctx context.Context, fineID int64) (*FineSummary, error)
	GetByULID(ctx context.Context, ulid string) (*FineSummary, error)
	ListAll(ctx context.Context) ([]FineSummary, error)
	PendingByBorrower(ctx context.Context, borrowerID int64) ([]FineSummary, error)
	TotalPendingByBorrower(ctx context.Context, borrowerID int64) (decimal.Decimal, error)
	Delete(ctx context.Context, fineID int64) error
}

type Service struct {
	store FineStore
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
func NewServiceWith(store FineStore, clock ident.Clock, id ident.IDGen) *Service {
	return &Service{store: store, clock: clock, id: id}
}

// 手動罰金の登録。金額は正の10進数のみ。
func (s *Service) CreateManualFine(ctx context.Context, req CreateFineRequest) (*FineResponse, error) {
	if req.BorrowerID <= 0 {
		return nil, liberr.ErrInvalid("borrower_id must be > 0")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, liberr.ErrInvalid("invalid amount, expected a decimal string")
	}
	if !amount.IsPositive() {
		return nil, liberr.ErrInvalid("amount must be > 0")
	}
	if req.Reason == "" {
		return nil, liberr.ErrInvalid("reason is required")
	}

	issuedOn := dateOnly(s.clock.Now())
	if req.IssuedOn != nil && *req.IssuedOn != "" {
		parsed, perr := time.Parse(dateLayout, *req.IssuedOn)
		if perr != nil {
			return nil, liberr.ErrInvalid("invalid issued_on format, expected YYYY-MM-DD")
		}
		issuedOn = parsed
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, liberr.ErrInternal(err.Error())
	}

	m := &Fine{
		FineULID:   idStr,
		BorrowerID: req.BorrowerID,
		Amount:     amount,
		Reason:     req.Reason,
		Status:     StatusPending,
		IssuedOn:   issuedOn,
	}
	if req.Description != nil && *req.Description != "" {
		m.Description.String = *req.Description
		m.Description.Valid = true
	}

	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	resp := buildFineResponse(m)
	return &resp, nil
}

// 支払い登録。pending 以外は INVALID_STATE。支払い日省略時は当日。
func (s *Service) RecordPayment(ctx context.Context, key string, req PayFineRequest) error {
	fineID, err := s.resolveID(ctx, key)
	if err != nil {
		return err
	}

	paidOn := dateOnly(s.clock.Now())
	if req.PaidOn != nil && *req.PaidOn != "" {
		parsed, perr := time.Parse(dateLayout, *req.PaidOn)
		if perr != nil {
			return liberr.ErrInvalid("invalid paid_on format, expected YYYY-MM-DD")
		}
		paidOn = parsed
	}

	return s.store.ExecRecordPayment(ctx, fineID, paidOn)
}

// 免除。pending 以外は INVALID_STATE。終端状態で支払い日は残さない。
func (s *Service) Waive(ctx context.Context, key string) error {
	fineID, err := s.resolveID(ctx, key)
	if err != nil {
		return err
	}
	return s.store.ExecWaive(ctx, fineID)
}

func (s *Service) GetByKey(ctx context.Context, key string) (*FineSummaryResponse, error) {
	d, err := s.getSummaryByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := buildSummaryResponse(d)
	return &resp, nil
}

func (s *Service) ListAll(ctx context.Context) ([]FineSummaryResponse, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return buildSummaryResponses(rows), nil
}

// 借り手の未払い罰金一覧（発行日の古い順）
func (s *Service) PendingForBorrower(ctx context.Context, borrowerID int64) ([]FineSummaryResponse, error) {
	if borrowerID <= 0 {
		return nil, liberr.ErrInvalid("borrower_id must be > 0")
	}
	rows, err := s.store.PendingByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return buildSummaryResponses(rows), nil
}

// 借り手の未払い合計。罰金が1件もない借り手でも 0 を返す。
func (s *Service) TotalPendingForBorrower(ctx context.Context, borrowerID int64) (*PendingTotalResponse, error) {
	if borrowerID <= 0 {
		return nil, liberr.ErrInvalid("borrower_id must be > 0")
	}
	total, err := s.store.TotalPendingByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return &PendingTotalResponse{BorrowerID: borrowerID, Total: total.StringFixed(2)}, nil
}

// DeleteByKey は誤登録訂正用の管理操作。状態に関わらず削除する。
func (s *Service) DeleteByKey(ctx context.Context, key string) error {
	fineID, err := s.resolveID(ctx, key)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, fineID)
}

// ---------- helpers ----------

func (s *Service) resolveID(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, liberr.ErrInvalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	d, err := s.store.GetByULID(ctx, key)
	if err != nil {
		return 0, err
	}
	return d.FineID, nil
}

func (s *Service) getSummaryByKey(ctx context.Context, key string) (*FineSummary, error) {
	if key == "" {
		return nil, liberr.ErrInvalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return s.store.GetByID(ctx, id)
	}
	return s.store.GetByULID(ctx, key)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func buildFineResponse(m *Fine) FineResponse {
	resp := FineResponse{
		FineID:     m.FineID,
		FineULID:   m.FineULID,
		BorrowerID: m.BorrowerID,
		Amount:     m.Amount.StringFixed(2),
		Reason:     m.Reason,
		Status:     m.Status,
		IssuedOn:   m.IssuedOn,
	}
	if m.ReturnID.Valid {
		val := m.ReturnID.Int64
		resp.ReturnID = &val
	}
	if m.Description.Valid {
		val := m.Description.String
		resp.Description = &val
	}
	if m.PaidOn.Valid {
		val := m.PaidOn.Time
		resp.PaidOn = &val
	}
	return resp
}

func buildSummaryResponse(d *FineSummary) FineSummaryResponse {
	return FineSummaryResponse{
		FineResponse: buildFineResponse(&d.Fine),
		Borrower:     d.BorrowerName,
	}
}

func buildSummaryResponses(rows []FineSummary) []FineSummaryResponse {
	out := make([]FineSummaryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, buildSummaryResponse(&rows[i]))
	}
	return out
}
