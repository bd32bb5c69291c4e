package returns

import "time"

// 返却登録リクエスト
type CreateReturnRequest struct {
	LoanID int64 `json:"loan_id" binding:"required"`
	// "2006-01-02" 形式の文字列を想定（DATE）。省略時は当日
	ReturnedOn    string  `json:"returned_on,omitempty"`
	BookCondition string  `json:"book_condition" binding:"required"`
	Note          *string `json:"note,omitempty"`
}

// 自動発行された罰金（遅延がなければ省略される）
type IssuedFineResponse struct {
	FineID   int64  `json:"fine_id"`
	FineULID string `json:"fine_ulid"`
	Amount   string `json:"amount"`
}

// 返却レスポンス
type ReturnResponse struct {
	ReturnID      int64               `json:"return_id"`
	ReturnULID    string              `json:"return_ulid"`
	LoanID        int64               `json:"loan_id"`
	ReturnedOn    time.Time           `json:"returned_on"`
	LateDays      int                 `json:"late_days"`
	BookCondition string              `json:"book_condition"`
	Note          *string             `json:"note,omitempty"`
	Fine          *IssuedFineResponse `json:"fine,omitempty"`
}

// 一覧用レスポンス
type ReturnSummaryResponse struct {
	ReturnID      int64     `json:"return_id"`
	ReturnULID    string    `json:"return_ulid"`
	LoanID        int64     `json:"loan_id"`
	Borrower      string    `json:"borrower"`
	Book          string    `json:"book"`
	LoanDate      time.Time `json:"loan_date"`
	ReturnedOn    time.Time `json:"returned_on"`
	LateDays      int       `json:"late_days"`
	BookCondition string    `json:"book_condition"`
}

// 詳細レスポンス
type ReturnDetailResponse struct {
	ReturnResponse
	BorrowerID   int64  `json:"borrower_id"`
	BookID       int64  `json:"book_id"`
	BorrowerName string `json:"borrower_name"`
	BookTitle    string `json:"book_title"`
}
