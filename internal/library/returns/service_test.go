package returns

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/library/loans"
)

func Test_lateDaysBetween(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	tests := []struct {
		name     string
		actual   time.Time
		expected time.Time
		want     int
	}{
		{"on_time", day(2024, 1, 10), day(2024, 1, 10), 0},
		{"early_clamped_to_zero", day(2024, 1, 5), day(2024, 1, 10), 0},
		{"three_days_late", day(2024, 1, 13), day(2024, 1, 10), 3},
		{"five_days_late", day(2024, 1, 15), day(2024, 1, 10), 5},
		{"time_of_day_ignored", time.Date(2024, 1, 11, 23, 59, 0, 0, time.UTC), day(2024, 1, 10), 1},
		{"month_boundary", day(2024, 2, 2), day(2024, 1, 30), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lateDaysBetween(tt.actual, tt.expected))
		})
	}
}

// ---------- fakes ----------

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type seqIDGen struct{ n int }

func (g *seqIDGen) New() (string, error) {
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n), nil
}

type fakeLoan struct {
	status   string
	dueOn    time.Time
	bookID   int64
	borrower int64
}

type fakeFine struct {
	id     int64
	ulid   string
	amount decimal.Decimal
	status string
}

// fakeReturnStore は返却トランザクションの意味論（貸出確定・在庫復元・罰金発行）を模倣する
type fakeReturnStore struct {
	loans     map[int64]*fakeLoan
	available map[int64]int
	returns   map[int64]*Return
	fines     []fakeFine
	nextRetID int64
	nextFinID int64
}

func newFakeReturnStore() *fakeReturnStore {
	return &fakeReturnStore{
		loans:     map[int64]*fakeLoan{},
		available: map[int64]int{},
		returns:   map[int64]*Return{},
	}
}

func (f *fakeReturnStore) ExecCreateReturn(_ context.Context, m *Return, fineULID string, dailyRate decimal.Decimal) (*IssuedFine, error) {
	loan, ok := f.loans[m.LoanID]
	if !ok {
		return nil, liberr.ErrNotFound("loan not found")
	}
	if loan.status == loans.StatusReturned {
		return nil, liberr.ErrAlreadyReturned("loan is already returned")
	}
	m.LateDays = lateDaysBetween(m.ReturnedOn, loan.dueOn)

	f.nextRetID++
	m.ReturnID = f.nextRetID
	cp := *m
	f.returns[m.ReturnID] = &cp

	loan.status = loans.StatusReturned
	f.available[loan.bookID]++

	if m.LateDays == 0 {
		return nil, nil
	}
	f.nextFinID++
	amount := dailyRate.Mul(decimal.NewFromInt(int64(m.LateDays)))
	f.fines = append(f.fines, fakeFine{
		id: f.nextFinID, ulid: fineULID, amount: amount, status: "pending",
	})
	return &IssuedFine{FineID: f.nextFinID, FineULID: fineULID, Amount: amount}, nil
}

func (f *fakeReturnStore) detail(m *Return) *ReturnDetail {
	loan := f.loans[m.LoanID]
	return &ReturnDetail{Return: *m, BorrowerID: loan.borrower, BookID: loan.bookID}
}

func (f *fakeReturnStore) GetByID(_ context.Context, returnID int64) (*ReturnDetail, error) {
	m, ok := f.returns[returnID]
	if !ok {
		return nil, nil
	}
	return f.detail(m), nil
}

func (f *fakeReturnStore) GetByULID(_ context.Context, ulid string) (*ReturnDetail, error) {
	for _, m := range f.returns {
		if m.ReturnULID == ulid {
			return f.detail(m), nil
		}
	}
	return nil, nil
}

func (f *fakeReturnStore) GetByLoanID(_ context.Context, loanID int64) (*ReturnDetail, error) {
	for _, m := range f.returns {
		if m.LoanID == loanID {
			return f.detail(m), nil
		}
	}
	return nil, nil
}

func (f *fakeReturnStore) ListAll(_ context.Context) ([]ReturnSummary, error) {
	var out []ReturnSummary
	for _, m := range f.returns {
		out = append(out, ReturnSummary{
			ReturnID: m.ReturnID, ReturnULID: m.ReturnULID, LoanID: m.LoanID,
			ReturnedOn: m.ReturnedOn, LateDays: m.LateDays, BookCondition: m.BookCondition,
		})
	}
	return out, nil
}

func newTestService(store *fakeReturnStore, now time.Time) *Service {
	rate := decimal.RequireFromString("5.00")
	return NewServiceWith(store, fakeClock{now: now}, &seqIDGen{}, rate)
}

func (f *fakeReturnStore) addLoan(loanID int64, dueOn time.Time) {
	f.loans[loanID] = &fakeLoan{status: loans.StatusActive, dueOn: dueOn, bookID: 1, borrower: 7}
}

// ---------- tests ----------

func Test_RecordReturn(t *testing.T) {
	today := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	dueOn := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("on_time_no_fine", func(t *testing.T) {
		store := newFakeReturnStore()
		store.addLoan(1, dueOn)
		svc := newTestService(store, today)

		res, err := svc.RecordReturn(context.Background(), CreateReturnRequest{
			LoanID: 1, ReturnedOn: "2024-01-10", BookCondition: ConditionGood,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, res.LateDays)
		assert.Nil(t, res.Fine)
		assert.Empty(t, store.fines)
		assert.Equal(t, loans.StatusReturned, store.loans[1].status)
		assert.Equal(t, 1, store.available[1])
	})

	t.Run("five_days_late_issues_pending_fine", func(t *testing.T) {
		store := newFakeReturnStore()
		store.addLoan(1, dueOn)
		svc := newTestService(store, today)

		res, err := svc.RecordReturn(context.Background(), CreateReturnRequest{
			LoanID: 1, ReturnedOn: "2024-01-15", BookCondition: ConditionDamaged,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, res.LateDays)
		require.NotNil(t, res.Fine)
		assert.Equal(t, "25.00", res.Fine.Amount)
		require.Len(t, store.fines, 1)
		assert.Equal(t, "pending", store.fines[0].status)
		assert.True(t, store.fines[0].amount.Equal(decimal.RequireFromString("25.00")))
	})

	t.Run("returned_on_defaults_to_today", func(t *testing.T) {
		store := newFakeReturnStore()
		store.addLoan(1, dueOn)
		svc := newTestService(store, today)

		res, err := svc.RecordReturn(context.Background(), CreateReturnRequest{
			LoanID: 1, BookCondition: ConditionGood,
		})
		require.NoError(t, err)
		assert.Equal(t, today, res.ReturnedOn)
		assert.Equal(t, 5, res.LateDays) // 今日は期限の5日後
	})

	t.Run("double_return_fails_and_increments_once", func(t *testing.T) {
		store := newFakeReturnStore()
		store.addLoan(1, dueOn)
		svc := newTestService(store, today)

		_, err := svc.RecordReturn(context.Background(), CreateReturnRequest{
			LoanID: 1, ReturnedOn: "2024-01-10", BookCondition: ConditionGood,
		})
		require.NoError(t, err)

		_, err = svc.RecordReturn(context.Background(), CreateReturnRequest{
			LoanID: 1, ReturnedOn: "2024-01-11", BookCondition: ConditionGood,
		})
		require.Error(t, err)
		assert.True(t, liberr.HasCode(err, liberr.CodeAlreadyReturned))
		assert.Equal(t, 1, store.available[1])
		assert.Len(t, store.returns, 1)
	})

	t.Run("unknown_loan_fails_not_found", func(t *testing.T) {
		store := newFakeReturnStore()
		svc := newTestService(store, today)

		_, err := svc.RecordReturn(context.Background(), CreateReturnRequest{
			LoanID: 99, ReturnedOn: "2024-01-10", BookCondition: ConditionGood,
		})
		assert.True(t, liberr.HasCode(err, liberr.CodeNotFound))
	})

	t.Run("validation", func(t *testing.T) {
		store := newFakeReturnStore()
		store.addLoan(1, dueOn)
		svc := newTestService(store, today)

		tests := []struct {
			name string
			req  CreateReturnRequest
		}{
			{"zero_loan", CreateReturnRequest{LoanID: 0, ReturnedOn: "2024-01-10", BookCondition: ConditionGood}},
			{"bad_date", CreateReturnRequest{LoanID: 1, ReturnedOn: "10/01/2024", BookCondition: ConditionGood}},
			{"bad_condition", CreateReturnRequest{LoanID: 1, ReturnedOn: "2024-01-10", BookCondition: "mint"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.RecordReturn(context.Background(), tt.req)
				assert.True(t, liberr.HasCode(err, liberr.CodeInvalidArgument))
			})
		}
		// 失敗時は何も記録されない
		assert.Empty(t, store.returns)
		assert.Equal(t, loans.StatusActive, store.loans[1].status)
	})
}

func Test_ReturnLookups_AbsenceIsNil(t *testing.T) {
	today := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	store := newFakeReturnStore()
	store.addLoan(1, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	svc := newTestService(store, today)

	// 未返却の状態では「無い」のであってエラーではない
	d, err := svc.GetByLoanID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = svc.GetByKey(context.Background(), "01UNKNOWNULID000000000000")
	require.NoError(t, err)
	assert.Nil(t, d)

	created, err := svc.RecordReturn(context.Background(), CreateReturnRequest{
		LoanID: 1, ReturnedOn: "2024-01-12", BookCondition: ConditionGood,
	})
	require.NoError(t, err)

	d, err = svc.GetByLoanID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, created.ReturnULID, d.ReturnULID)
	assert.Equal(t, 2, d.LateDays)

	d, err = svc.GetByKey(context.Background(), created.ReturnULID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, int64(7), d.BorrowerID)

	_, err = svc.GetByKey(context.Background(), "")
	assert.True(t, liberr.HasCode(err, liberr.CodeInvalidArgument))

	_, err = svc.GetByLoanID(context.Background(), 0)
	assert.True(t, liberr.HasCode(err, liberr.CodeInvalidArgument))
}
