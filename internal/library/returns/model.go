package returns

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// 返却時の本の状態タグ
const (
	ConditionGood    = "good"
	ConditionDamaged = "damaged"
	ConditionLost    = "lost"
)

// Return は returns テーブルの1行を表す。1つの貸出に対して高々1行。
type Return struct {
	ReturnID      int64
	ReturnULID    string
	LoanID        int64
	ReturnedOn    time.Time
	LateDays      int
	BookCondition string
	Note          sql.NullString
}

// IssuedFine は返却処理が同一トランザクション内で自動発行した罰金
type IssuedFine struct {
	FineID   int64
	FineULID string
	Amount   decimal.Decimal
}

// ReturnSummary は一覧表示用の結合済み行
type ReturnSummary struct {
	ReturnID      int64
	ReturnULID    string
	LoanID        int64
	BorrowerName  string
	BookTitle     string
	LoanDate      time.Time
	ReturnedOn    time.Time
	LateDays      int
	BookCondition string
}

// ReturnDetail は詳細表示用の結合済み行
type ReturnDetail struct {
	Return
	BorrowerID   int64
	BookID       int64
	BorrowerName string
	BookTitle    string
}

func validCondition(c string) bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionLost:
		return true
	}
	return false
}

// lateDaysBetween は暦日ベースの遅延日数。時刻成分は無視し、負は0に丸める。
func lateDaysBetween(actual, expected time.Time) int {
	a := time.Date(actual.Year(), actual.Month(), actual.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(expected.Year(), expected.Month(), expected.Day(), 0, 0, 0, 0, time.UTC)
	d := int(a.Sub(e).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
