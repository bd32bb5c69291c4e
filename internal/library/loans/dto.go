package loans

import "time"

// 貸出登録リクエスト
type CreateLoanRequest struct {
	BorrowerID int64 `json:"borrower_id" binding:"required"`
	BookID     int64 `json:"book_id" binding:"required"`
	// "2006-01-02" 形式の文字列を想定（DATE）
	LoanDate string  `json:"loan_date" binding:"required"`
	DueOn    string  `json:"due_on" binding:"required"`
	Note     *string `json:"note,omitempty"`
}

// 貸出レスポンス
type LoanResponse struct {
	LoanID     int64     `json:"loan_id"`
	LoanULID   string    `json:"loan_ulid"`
	BorrowerID int64     `json:"borrower_id"`
	BookID     int64     `json:"book_id"`
	LoanDate   time.Time `json:"loan_date"`
	DueOn      time.Time `json:"due_on"`
	Status     string    `json:"status"`
	Note       *string   `json:"note,omitempty"`
}

// 一覧用レスポンス（借り手名・書名・延滞日数を含む）
type LoanSummaryResponse struct {
	LoanID       int64     `json:"loan_id"`
	LoanULID     string    `json:"loan_ulid"`
	Borrower     string    `json:"borrower"`
	Book         string    `json:"book"`
	LoanDate     time.Time `json:"loan_date"`
	DueOn        time.Time `json:"due_on"`
	Status       string    `json:"status"`
	DaysLate     int       `json:"days_late"`
}

// 詳細レスポンス
type LoanDetailResponse struct {
	LoanResponse
	BorrowerName  string `json:"borrower_name"`
	BorrowerEmail string `json:"borrower_email"`
	BookTitle     string `json:"book_title"`
	BookISBN      string `json:"book_isbn"`
}

// mark-overdue の結果
type MarkOverdueResponse struct {
	Marked int64 `json:"marked"`
}
