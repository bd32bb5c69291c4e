package returns_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotecas-backend/internal/library/books"
	"bibliotecas-backend/internal/library/borrowers"
	"bibliotecas-backend/internal/library/fines"
	"bibliotecas-backend/internal/library/liberr"
	"bibliotecas-backend/internal/library/loans"
	"bibliotecas-backend/internal/library/returns"
)

// 実MySQLに対する貸出→遅延返却→罰金→支払いの一連フロー。
// LIBRARY_TEST_DSN が設定されているときだけ動く（スキーマは config/schema.sql 適用済み前提）。
//
//	LIBRARY_TEST_DSN="user:pass@tcp(127.0.0.1:3306)/biblioteca_test?parseTime=true" go test ./...
func Test_LoanReturnFineLifecycle(t *testing.T) {
	dsn := os.Getenv("LIBRARY_TEST_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_DSN is not set")
	}

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	ctx := context.Background()
	borrowerSvc := borrowers.NewService(db)
	bookSvc := books.NewService(db)
	loanSvc := loans.NewService(db)
	returnSvc := returns.NewService(db, decimal.RequireFromString("5.00"))
	fineSvc := fines.NewService(db)

	// 他の実行と衝突しないようにタイムスタンプで一意化する
	tag := fmt.Sprintf("%d", time.Now().UnixNano())
	borrower, err := borrowerSvc.Create(ctx, borrowers.BorrowerRequest{
		FirstName: "Taro",
		LastName:  "Test",
		Email:     fmt.Sprintf("taro+%s@example.com", tag),
		Kind:      "student",
	})
	require.NoError(t, err)

	book, err := bookSvc.Create(ctx, books.BookRequest{
		Title:           "Integration Testing in Practice",
		ISBN:            "TEST-" + tag,
		TotalCopies:     1,
		AvailableCopies: 1,
	})
	require.NoError(t, err)

	// 返却行は通常フローで消す口を持たないので、後片付けは外部キー順の生SQLで行う
	t.Cleanup(func() {
		db.Exec("DELETE FROM fines WHERE borrower_id = ?", borrower.BorrowerID)
		db.Exec("DELETE FROM returns WHERE loan_id IN (SELECT loan_id FROM loans WHERE borrower_id = ?)", borrower.BorrowerID)
		db.Exec("DELETE FROM loans WHERE borrower_id = ?", borrower.BorrowerID)
		db.Exec("DELETE FROM books WHERE book_id = ?", book.BookID)
		db.Exec("DELETE FROM borrowers WHERE borrower_id = ?", borrower.BorrowerID)
	})

	day := func(offset int) string {
		return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
	}

	// 期限を5日前にして貸出
	loan, err := loanSvc.CreateLoan(ctx, loans.CreateLoanRequest{
		BorrowerID: borrower.BorrowerID,
		BookID:     book.BookID,
		LoanDate:   day(-14),
		DueOn:      day(-5),
	})
	require.NoError(t, err)

	got, err := bookSvc.Get(ctx, book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies, "loan must consume the only copy")

	// 在庫ゼロの状態では次の貸出は弾かれる
	_, err = loanSvc.CreateLoan(ctx, loans.CreateLoanRequest{
		BorrowerID: borrower.BorrowerID,
		BookID:     book.BookID,
		LoanDate:   day(0),
		DueOn:      day(7),
	})
	assert.True(t, liberr.HasCode(err, liberr.CodeUnavailable))

	// 当日返却 = 5日遅れ、罰金 25.00 が同時に発行される
	ret, err := returnSvc.RecordReturn(ctx, returns.CreateReturnRequest{
		LoanID:        loan.LoanID,
		ReturnedOn:    day(0),
		BookCondition: returns.ConditionGood,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, ret.LateDays)
	require.NotNil(t, ret.Fine)
	assert.Equal(t, "25.00", ret.Fine.Amount)

	got, err = bookSvc.Get(ctx, book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies, "return must restore the copy")

	detail, err := loanSvc.GetByKey(ctx, loan.LoanULID)
	require.NoError(t, err)
	assert.Equal(t, loans.StatusReturned, detail.Status)

	// 二重返却は拒否され、在庫も増えない
	_, err = returnSvc.RecordReturn(ctx, returns.CreateReturnRequest{
		LoanID:        loan.LoanID,
		ReturnedOn:    day(0),
		BookCondition: returns.ConditionGood,
	})
	assert.True(t, liberr.HasCode(err, liberr.CodeAlreadyReturned))
	got, err = bookSvc.Get(ctx, book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)

	byLoan, err := returnSvc.GetByLoanID(ctx, loan.LoanID)
	require.NoError(t, err)
	require.NotNil(t, byLoan)
	assert.Equal(t, ret.ReturnULID, byLoan.ReturnULID)

	total, err := fineSvc.TotalPendingForBorrower(ctx, borrower.BorrowerID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", total.Total)

	require.NoError(t, fineSvc.RecordPayment(ctx, ret.Fine.FineULID, fines.PayFineRequest{}))
	total, err = fineSvc.TotalPendingForBorrower(ctx, borrower.BorrowerID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", total.Total)
}
