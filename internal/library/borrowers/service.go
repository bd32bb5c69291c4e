package borrowers

import (
	"context"
	"database/sql"
	"time"

	"bibliotecas-backend/internal/library/liberr"
)

const dateLayout = "2006-01-02"

type BorrowerStore interface {
	Insert(ctx context.Context, m *Borrower) error
	GetDetailByID(ctx context.Context, borrowerID int64) (*BorrowerDetail, error)
	ListAll(ctx context.Context) ([]Borrower, error)
	Update(ctx context.Context, m *Borrower) error
	Delete(ctx context.Context, borrowerID int64) error
}

type Service struct {
	store BorrowerStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func NewServiceWith(store BorrowerStore) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, req BorrowerRequest) (*BorrowerResponse, error) {
	m, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	resp := buildResponse(m)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, borrowerID int64) (*BorrowerDetailResponse, error) {
	d, err := s.store.GetDetailByID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return &BorrowerDetailResponse{
		BorrowerResponse: buildResponse(&d.Borrower),
		PendingFineTotal: d.PendingFineTotal.StringFixed(2),
	}, nil
}

func (s *Service) List(ctx context.Context) ([]BorrowerResponse, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BorrowerResponse, 0, len(rows))
	for i := range rows {
		out = append(out, buildResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, borrowerID int64, req BorrowerRequest) (*BorrowerDetailResponse, error) {
	if _, err := s.store.GetDetailByID(ctx, borrowerID); err != nil {
		return nil, err
	}
	m, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	m.BorrowerID = borrowerID
	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.Get(ctx, borrowerID)
}

func (s *Service) Delete(ctx context.Context, borrowerID int64) error {
	return s.store.Delete(ctx, borrowerID)
}

// ---------- helpers ----------

func validKind(k string) bool {
	switch k {
	case KindStudent, KindTeacher, KindExternal:
		return true
	}
	return false
}

func fromRequest(req BorrowerRequest) (*Borrower, error) {
	if !validKind(req.Kind) {
		return nil, liberr.ErrInvalid("kind must be one of student, teacher, external")
	}
	status := StatusActive
	if req.Status != nil && *req.Status != "" {
		if *req.Status != StatusActive && *req.Status != StatusSuspended {
			return nil, liberr.ErrInvalid("status must be active or suspended")
		}
		status = *req.Status
	}

	m := &Borrower{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Kind:      req.Kind,
		Status:    status,
	}
	if req.Phone != nil && *req.Phone != "" {
		m.Phone.String = *req.Phone
		m.Phone.Valid = true
	}
	if req.Address != nil && *req.Address != "" {
		m.Address.String = *req.Address
		m.Address.Valid = true
	}
	if req.BirthDate != nil && *req.BirthDate != "" {
		parsed, err := time.Parse(dateLayout, *req.BirthDate)
		if err != nil {
			return nil, liberr.ErrInvalid("invalid birth_date format, expected YYYY-MM-DD")
		}
		m.BirthDate.Time = parsed
		m.BirthDate.Valid = true
	}
	return m, nil
}

func buildResponse(m *Borrower) BorrowerResponse {
	resp := BorrowerResponse{
		BorrowerID:   m.BorrowerID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Kind:         m.Kind,
		Status:       m.Status,
		RegisteredAt: m.RegisteredAt,
	}
	if m.Phone.Valid {
		val := m.Phone.String
		resp.Phone = &val
	}
	if m.Address.Valid {
		val := m.Address.String
		resp.Address = &val
	}
	if m.BirthDate.Valid {
		val := m.BirthDate.Time
		resp.BirthDate = &val
	}
	return resp
}
