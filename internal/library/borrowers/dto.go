package borrowers

import "time"

// 登録・更新リクエスト
type BorrowerRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	// "2006-01-02" 形式
	BirthDate *string `json:"birth_date,omitempty"`
	Kind      string  `json:"kind" binding:"required"`
	Status    *string `json:"status,omitempty"`
}

// レスポンス
type BorrowerResponse struct {
	BorrowerID   int64      `json:"borrower_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	Address      *string    `json:"address,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// 詳細レスポンス（未払い罰金合計つき）
type BorrowerDetailResponse struct {
	BorrowerResponse
	PendingFineTotal string `json:"pending_fine_total"`
}
