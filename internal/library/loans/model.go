package loans

import (
	"database/sql"
	"time"
)

// 貸出ステータス。overdue は mark-overdue メンテナンス操作でのみ永続化される。
// 延滞かどうか自体は常に (status, due_on < 今日) から導出できる。
const (
	StatusActive   = "active"
	StatusOverdue  = "overdue"
	StatusReturned = "returned"
)

// Loan は loans テーブルの1行を表す
type Loan struct {
	LoanID     int64
	LoanULID   string
	BorrowerID int64
	BookID     int64
	LoanDate   time.Time
	DueOn      time.Time
	Status     string
	Note       sql.NullString
}

// LoanSummary は一覧表示用の結合済み行（借り手名・書名・延滞日数つき）
type LoanSummary struct {
	LoanID       int64
	LoanULID     string
	BorrowerName string
	BookTitle    string
	LoanDate     time.Time
	DueOn        time.Time
	Status       string
	DaysLate     int
}

// LoanDetail は詳細表示用の結合済み行
type LoanDetail struct {
	Loan
	BorrowerName  string
	BorrowerEmail string
	BookTitle     string
	BookISBN      string
}
