package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// ApplicationRecord tracks one candidate-job pairing across save points.
type ApplicationRecord struct {
	ID             uuid.UUID         `json:"id"`
	JobTitle       string            `json:"jobTitle"`
	Employer       string            `json:"employer"`
	JobDescription string            `json:"jobDescription"`
	CV             types.CVDocument  `json:"cv"`
	MatchScore     int               `json:"matchScore"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// CVStore loads and persists the candidate's current CV.
type CVStore interface {
	FetchCurrentCV(ctx context.Context) (types.CVDocument, error)
	PersistCV(ctx context.Context, cv types.CVDocument) error
}

// ApplicationStore persists application records at explicit save points.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, record ApplicationRecord) error
	UpdateApplication(ctx context.Context, record ApplicationRecord) error
}

// MemoryCVStore is an in-process CVStore. It backs the CLI pipeline and tests;
// durable storage plugs in behind the same interface.
type MemoryCVStore struct {
	mu sync.RWMutex
	cv *types.CVDocument
}

func NewMemoryCVStore() *MemoryCVStore {
	return &MemoryCVStore{}
}

func (s *MemoryCVStore) FetchCurrentCV(ctx context.Context) (types.CVDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cv == nil {
		return types.CVDocument{}, errors.NewPersistenceError(errors.ErrCodePersistence,
			"No CV has been stored yet", nil)
	}
	return *s.cv, nil
}

func (s *MemoryCVStore) PersistCV(ctx context.Context, cv types.CVDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cv
	s.cv = &stored
	return nil
}

// MemoryApplicationStore is an in-process ApplicationStore keyed by record ID.
type MemoryApplicationStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]ApplicationRecord
}

func NewMemoryApplicationStore() *MemoryApplicationStore {
	return &MemoryApplicationStore{records: make(map[uuid.UUID]ApplicationRecord)}
}

func (s *MemoryApplicationStore) CreateApplication(ctx context.Context, record ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return errors.NewPersistenceError(errors.ErrCodePersistence,
			"Application record already exists: "+record.ID.String(), nil)
	}
	s.records[record.ID] = record
	return nil
}

func (s *MemoryApplicationStore) UpdateApplication(ctx context.Context, record ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; !exists {
		return errors.NewPersistenceError(errors.ErrCodePersistence,
			"Unknown application record: "+record.ID.String(), nil)
	}
	s.records[record.ID] = record
	return nil
}

// GetApplication returns a stored record and whether it exists.
func (s *MemoryApplicationStore) GetApplication(id uuid.UUID) (ApplicationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	return record, ok
}
