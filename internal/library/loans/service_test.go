package loans

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotecas-backend/internal/library/liberr"
)

// ---------- fakes ----------

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type seqIDGen struct{ n int }

func (g *seqIDGen) New() (string, error) {
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n), nil
}

// fakeLoanStore はトランザクション境界の意味論を含めてストアを模倣する
type fakeLoanStore struct {
	available map[int64]int // book_id -> available_copies
	loans     map[int64]*Loan
	nextID    int64
	today     time.Time
}

func newFakeLoanStore(today time.Time) *fakeLoanStore {
	return &fakeLoanStore{
		available: map[int64]int{},
		loans:     map[int64]*Loan{},
		today:     today,
	}
}

func (f *fakeLoanStore) ExecCreateLoan(_ context.Context, m *Loan) error {
	avail, ok := f.available[m.BookID]
	if !ok {
		return liberr.ErrNotFound("book not found")
	}
	if avail < 1 {
		return liberr.ErrUnavailable("no available copies for this book")
	}
	f.available[m.BookID] = avail - 1
	f.nextID++
	m.LoanID = f.nextID
	m.Status = StatusActive
	cp := *m
	f.loans[m.LoanID] = &cp
	return nil
}

func (f *fakeLoanStore) GetByID(_ context.Context, loanID int64) (*LoanDetail, error) {
	m, ok := f.loans[loanID]
	if !ok {
		return nil, liberr.ErrNotFound("loan not found")
	}
	return &LoanDetail{Loan: *m}, nil
}

func (f *fakeLoanStore) GetByULID(_ context.Context, ulid string) (*LoanDetail, error) {
	for _, m := range f.loans {
		if m.LoanULID == ulid {
			return &LoanDetail{Loan: *m}, nil
		}
	}
	return nil, liberr.ErrNotFound("loan not found")
}

func (f *fakeLoanStore) summaries(filter func(*Loan) bool) []LoanSummary {
	var out []LoanSummary
	for _, m := range f.loans {
		if !filter(m) {
			continue
		}
		out = append(out, LoanSummary{
			LoanID: m.LoanID, LoanULID: m.LoanULID,
			LoanDate: m.LoanDate, DueOn: m.DueOn, Status: m.Status,
		})
	}
	return out
}

func (f *fakeLoanStore) ListAll(_ context.Context) ([]LoanSummary, error) {
	return f.summaries(func(*Loan) bool { return true }), nil
}

func (f *fakeLoanStore) ListActive(_ context.Context) ([]LoanSummary, error) {
	return f.summaries(func(m *Loan) bool { return m.Status == StatusActive }), nil
}

func (f *fakeLoanStore) FindOverdue(_ context.Context) ([]LoanSummary, error) {
	return f.summaries(func(m *Loan) bool {
		return (m.Status == StatusActive || m.Status == StatusOverdue) && m.DueOn.Before(f.today)
	}), nil
}

func (f *fakeLoanStore) MarkOverdue(_ context.Context) (int64, error) {
	var n int64
	for _, m := range f.loans {
		if m.Status == StatusActive && m.DueOn.Before(f.today) {
			m.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func (f *fakeLoanStore) Delete(_ context.Context, loanID int64) error {
	if _, ok := f.loans[loanID]; !ok {
		return liberr.ErrNotFound("loan not found")
	}
	delete(f.loans, loanID)
	return nil
}

func newTestService(store *fakeLoanStore) *Service {
	return NewServiceWith(store, fakeClock{now: store.today}, &seqIDGen{})
}

// ---------- tests ----------

func Test_CreateLoan(t *testing.T) {
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	validReq := CreateLoanRequest{
		BorrowerID: 7,
		BookID:     1,
		LoanDate:   "2024-01-01",
		DueOn:      "2024-01-10",
	}

	t.Run("success_decrements_availability_exactly_once", func(t *testing.T) {
		store := newFakeLoanStore(today)
		store.available[1] = 2
		svc := newTestService(store)

		res, err := svc.CreateLoan(context.Background(), validReq)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, res.Status)
		assert.NotEmpty(t, res.LoanULID)
		assert.Equal(t, 1, store.available[1])
		assert.Len(t, store.loans, 1)
	})

	t.Run("no_copies_fails_unavailable_and_mutates_nothing", func(t *testing.T) {
		store := newFakeLoanStore(today)
		store.available[1] = 0
		svc := newTestService(store)

		_, err := svc.CreateLoan(context.Background(), validReq)
		require.Error(t, err)
		assert.True(t, liberr.HasCode(err, liberr.CodeUnavailable))
		assert.Equal(t, 0, store.available[1])
		assert.Empty(t, store.loans)
	})

	t.Run("last_copy_second_request_fails_unavailable", func(t *testing.T) {
		store := newFakeLoanStore(today)
		store.available[1] = 1
		svc := newTestService(store)

		_, err := svc.CreateLoan(context.Background(), validReq)
		require.NoError(t, err)
		assert.Equal(t, 0, store.available[1])

		_, err = svc.CreateLoan(context.Background(), validReq)
		require.Error(t, err)
		assert.True(t, liberr.HasCode(err, liberr.CodeUnavailable))
		assert.Equal(t, 0, store.available[1])
		assert.Len(t, store.loans, 1)
	})

	t.Run("unknown_book_fails_not_found", func(t *testing.T) {
		store := newFakeLoanStore(today)
		svc := newTestService(store)

		_, err := svc.CreateLoan(context.Background(), validReq)
		assert.True(t, liberr.HasCode(err, liberr.CodeNotFound))
	})

	t.Run("validation", func(t *testing.T) {
		store := newFakeLoanStore(today)
		store.available[1] = 1
		svc := newTestService(store)

		tests := []struct {
			name string
			req  CreateLoanRequest
		}{
			{"zero_borrower", CreateLoanRequest{BorrowerID: 0, BookID: 1, LoanDate: "2024-01-01", DueOn: "2024-01-10"}},
			{"zero_book", CreateLoanRequest{BorrowerID: 7, BookID: 0, LoanDate: "2024-01-01", DueOn: "2024-01-10"}},
			{"bad_loan_date", CreateLoanRequest{BorrowerID: 7, BookID: 1, LoanDate: "01/01/2024", DueOn: "2024-01-10"}},
			{"bad_due_date", CreateLoanRequest{BorrowerID: 7, BookID: 1, LoanDate: "2024-01-01", DueOn: "soon"}},
			{"due_before_loan", CreateLoanRequest{BorrowerID: 7, BookID: 1, LoanDate: "2024-01-10", DueOn: "2024-01-01"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateLoan(context.Background(), tt.req)
				assert.True(t, liberr.HasCode(err, liberr.CodeInvalidArgument))
			})
		}
		// どの失敗でも在庫は減らない
		assert.Equal(t, 1, store.available[1])
	})
}

func Test_GetByKey(t *testing.T) {
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeLoanStore(today)
	store.available[1] = 1
	svc := newTestService(store)

	created, err := svc.CreateLoan(context.Background(), CreateLoanRequest{
		BorrowerID: 7, BookID: 1, LoanDate: "2024-01-01", DueOn: "2024-01-10",
	})
	require.NoError(t, err)

	byID, err := svc.GetByKey(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, created.LoanULID, byID.LoanULID)

	byULID, err := svc.GetByKey(context.Background(), created.LoanULID)
	require.NoError(t, err)
	assert.Equal(t, created.LoanID, byULID.LoanID)

	_, err = svc.GetByKey(context.Background(), "999")
	assert.True(t, liberr.HasCode(err, liberr.CodeNotFound))

	_, err = svc.GetByKey(context.Background(), "")
	assert.True(t, liberr.HasCode(err, liberr.CodeInvalidArgument))
}

func Test_MarkOverdue(t *testing.T) {
	today := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeLoanStore(today)
	store.available[1] = 3
	svc := newTestService(store)

	mk := func(due string) {
		_, err := svc.CreateLoan(context.Background(), CreateLoanRequest{
			BorrowerID: 7, BookID: 1, LoanDate: "2024-01-01", DueOn: due,
		})
		require.NoError(t, err)
	}
	mk("2024-01-10") // 期限切れ
	mk("2024-01-20") // 期限切れ
	mk("2024-02-10") // まだ

	// 読み取りは副作用を持たない
	overdue, err := svc.FindOverdue(context.Background())
	require.NoError(t, err)
	assert.Len(t, overdue, 2)
	for _, m := range store.loans {
		assert.NotEqual(t, StatusOverdue, m.Status)
	}

	res, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Marked)

	// 2回目は対象なし
	res, err = svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Marked)

	// マーク後も overdue の貸出は一覧に残る
	overdue, err = svc.FindOverdue(context.Background())
	require.NoError(t, err)
	assert.Len(t, overdue, 2)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func Test_DeleteByKey_DoesNotRestoreAvailability(t *testing.T) {
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeLoanStore(today)
	store.available[1] = 1
	svc := newTestService(store)

	created, err := svc.CreateLoan(context.Background(), CreateLoanRequest{
		BorrowerID: 7, BookID: 1, LoanDate: "2024-01-01", DueOn: "2024-01-10",
	})
	require.NoError(t, err)
	require.Equal(t, 0, store.available[1])

	// 管理削除は在庫を巻き戻さない
	require.NoError(t, svc.DeleteByKey(context.Background(), created.LoanULID))
	assert.Equal(t, 0, store.available[1])
	assert.Empty(t, store.loans)

	err = svc.DeleteByKey(context.Background(), "999")
	assert.True(t, liberr.HasCode(err, liberr.CodeNotFound))
}
