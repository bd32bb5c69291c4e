package books

import (
	"database/sql"
	"time"
)

// Book は books テーブルの1行を表す。
// available_copies は通常運用では貸出(-1)・返却(+1)だけが動かす。
// カタログ編集で直接設定する場合も 0 <= available <= total を越えてはならない。
type Book struct {
	BookID          int64
	Title           string
	ISBN            string
	AuthorID        sql.NullInt64
	PublisherID     sql.NullInt64
	CategoryID      sql.NullInt64
	LanguageID      sql.NullInt64
	LocationID      sql.NullInt64
	PublicationYear sql.NullInt64
	PageCount       sql.NullInt64
	TotalCopies     int
	AvailableCopies int
	Description     sql.NullString
	CreatedAt       time.Time
}

// 登録・更新リクエスト
type BookRequest struct {
	Title           string  `json:"title" binding:"required"`
	ISBN            string  `json:"isbn" binding:"required"`
	AuthorID        *int64  `json:"author_id,omitempty"`
	PublisherID     *int64  `json:"publisher_id,omitempty"`
	CategoryID      *int64  `json:"category_id,omitempty"`
	LanguageID      *int64  `json:"language_id,omitempty"`
	LocationID      *int64  `json:"location_id,omitempty"`
	PublicationYear *int64  `json:"publication_year,omitempty"`
	PageCount       *int64  `json:"page_count,omitempty"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
	Description     *string `json:"description,omitempty"`
}

// レスポンス
type BookResponse struct {
	BookID          int64     `json:"book_id"`
	Title           string    `json:"title"`
	ISBN            string    `json:"isbn"`
	AuthorID        *int64    `json:"author_id,omitempty"`
	PublisherID     *int64    `json:"publisher_id,omitempty"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	LanguageID      *int64    `json:"language_id,omitempty"`
	LocationID      *int64    `json:"location_id,omitempty"`
	PublicationYear *int64    `json:"publication_year,omitempty"`
	PageCount       *int64    `json:"page_count,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Description     *string   `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
