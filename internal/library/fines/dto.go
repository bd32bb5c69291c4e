package fines

import "time"

// 手動罰金の登録リクエスト（遅延罰金は返却エンジンが自動発行する）
type CreateFineRequest struct {
	BorrowerID int64 `json:"borrower_id" binding:"required"`
	// "25.00" のような10進文字列
	Amount      string  `json:"amount" binding:"required"`
	Reason      string  `json:"reason" binding:"required"`
	Description *string `json:"description,omitempty"`
	// "2006-01-02"。省略時は当日
	IssuedOn *string `json:"issued_on,omitempty"`
}

// 支払い登録リクエスト
type PayFineRequest struct {
	// "2006-01-02"。省略時は当日
	PaidOn *string `json:"paid_on,omitempty"`
}

// 罰金レスポンス
type FineResponse struct {
	FineID      int64      `json:"fine_id"`
	FineULID    string     `json:"fine_ulid"`
	ReturnID    *int64     `json:"return_id,omitempty"`
	BorrowerID  int64      `json:"borrower_id"`
	Amount      string     `json:"amount"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	IssuedOn    time.Time  `json:"issued_on"`
	PaidOn      *time.Time `json:"paid_on,omitempty"`
}

// 一覧用レスポンス（借り手名つき）
type FineSummaryResponse struct {
	FineResponse
	Borrower string `json:"borrower"`
}

// 借り手の未払い合計
type PendingTotalResponse struct {
	BorrowerID int64  `json:"borrower_id"`
	Total      string `json:"total"`
}
