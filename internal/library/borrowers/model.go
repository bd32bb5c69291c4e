package borrowers

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindStudent  = "student"
	KindTeacher  = "teacher"
	KindExternal = "external"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Borrower は borrowers テーブルの1行を表す
type Borrower struct {
	BorrowerID   int64
	FirstName    string
	LastName     string
	Email        string
	Phone        sql.NullString
	Address      sql.NullString
	BirthDate    sql.NullTime
	Kind         string
	Status       string
	RegisteredAt time.Time
}

// BorrowerDetail は詳細表示用。未払い罰金の合計を含む。
type BorrowerDetail struct {
	Borrower
	PendingFineTotal decimal.Decimal
}
