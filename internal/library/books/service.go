package books

import (
	"context"
	"database/sql"

	"bibliotecas-backend/internal/library/liberr"
)

type BookStore interface {
	Insert(ctx context.Context, m *Book) error
	GetByID(ctx context.Context, bookID int64) (*Book, error)
	ListAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, m *Book) error
	Delete(ctx context.Context, bookID int64) error
}

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func NewServiceWith(store BookStore) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, req BookRequest) (*BookResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	m := fromRequest(req)
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	resp := buildResponse(m)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, bookID int64) (*BookResponse, error) {
	m, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	resp := buildResponse(m)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]BookResponse, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BookResponse, 0, len(rows))
	for i := range rows {
		out = append(out, buildResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, bookID int64, req BookRequest) (*BookResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	// 存在確認（更新自体は値が同一でも成功扱いになるため）
	if _, err := s.store.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	m := fromRequest(req)
	m.BookID = bookID
	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.Get(ctx, bookID)
}

func (s *Service) Delete(ctx context.Context, bookID int64) error {
	return s.store.Delete(ctx, bookID)
}

// カタログ編集は在庫数の不変条件 0 <= available <= total を越えられない
func validate(req BookRequest) error {
	if req.Title == "" {
		return liberr.ErrInvalid("title is required")
	}
	if req.ISBN == "" {
		return liberr.ErrInvalid("isbn is required")
	}
	if req.TotalCopies < 0 {
		return liberr.ErrInvalid("total_copies must be >= 0")
	}
	if req.AvailableCopies < 0 || req.AvailableCopies > req.TotalCopies {
		return liberr.ErrInvalid("available_copies must be between 0 and total_copies")
	}
	return nil
}

func fromRequest(req BookRequest) *Book {
	m := &Book{
		Title:           req.Title,
		ISBN:            req.ISBN,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
	}
	m.AuthorID = nullFromPtr(req.AuthorID)
	m.PublisherID = nullFromPtr(req.PublisherID)
	m.CategoryID = nullFromPtr(req.CategoryID)
	m.LanguageID = nullFromPtr(req.LanguageID)
	m.LocationID = nullFromPtr(req.LocationID)
	m.PublicationYear = nullFromPtr(req.PublicationYear)
	m.PageCount = nullFromPtr(req.PageCount)
	if req.Description != nil && *req.Description != "" {
		m.Description.String = *req.Description
		m.Description.Valid = true
	}
	return m
}

func nullFromPtr(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func ptrFromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	val := n.Int64
	return &val
}

func buildResponse(m *Book) BookResponse {
	resp := BookResponse{
		BookID:          m.BookID,
		Title:           m.Title,
		ISBN:            m.ISBN,
		AuthorID:        ptrFromNull(m.AuthorID),
		PublisherID:     ptrFromNull(m.PublisherID),
		CategoryID:      ptrFromNull(m.CategoryID),
		LanguageID:      ptrFromNull(m.LanguageID),
		LocationID:      ptrFromNull(m.LocationID),
		PublicationYear: ptrFromNull(m.PublicationYear),
		PageCount:       ptrFromNull(m.PageCount),
		TotalCopies:     m.TotalCopies,
		AvailableCopies: m.AvailableCopies,
		CreatedAt:       m.CreatedAt,
	}
	if m.Description.Valid {
		val := m.Description.String
		resp.Description = &val
	}
	return resp
}
