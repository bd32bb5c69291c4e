package fines

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// 罰金ステータス。pending → paid / waived の一方向のみ。
// paid と waived は終端で、どちらからも遷移しない。
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusWaived  = "waived"
)

// 返却エンジンが自動発行する罰金の理由コード
const ReasonLateReturn = "late return"

// Fine は fines テーブルの1行を表す。
// ReturnID は自動発行の場合のみ入る（手動登録では NULL）。
type Fine struct {
	FineID      int64
	FineULID    string
	ReturnID    sql.NullInt64
	BorrowerID  int64
	Amount      decimal.Decimal
	Reason      string
	Description sql.NullString
	Status      string
	IssuedOn    time.Time
	PaidOn      sql.NullTime
}

// FineSummary は一覧表示用の結合済み行
type FineSummary struct {
	Fine
	BorrowerName string
}
