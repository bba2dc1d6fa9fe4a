package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/sift/internal/domain/model"
)

// MemStore implements Store with in-process maps. The store-wide mutex gives
// the single-writer-per-subject guarantee; clones on every boundary keep
// callers from aliasing persisted state.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]model.AssessmentRecord
	history map[string][]model.HistoryEntry
}

// NewMemStore creates an empty in-memory record store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]model.AssessmentRecord),
		history: make(map[string][]model.HistoryEntry),
	}
}

// Create inserts a fresh record.
func (s *MemStore) Create(ctx context.Context, rec model.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.SubjectID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.SubjectID)
	}
	s.records[rec.SubjectID] = rec.Clone()
	return nil
}

// Get returns a copy of the subject's record.
func (s *MemStore) Get(ctx context.Context, subjectID string) (model.AssessmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[subjectID]
	if !ok {
		return model.AssessmentRecord{}, fmt.Errorf("%w: %s", ErrNotFound, subjectID)
	}
	return rec.Clone(), nil
}

// Update atomically applies mutate to the stored record.
func (s *MemStore) Update(ctx context.Context, subjectID string, mutate func(*model.AssessmentRecord) error) (model.AssessmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[subjectID]
	if !ok {
		return model.AssessmentRecord{}, fmt.Errorf("%w: %s", ErrNotFound, subjectID)
	}
	working := stored.Clone()
	if err := mutate(&working); err != nil {
		return model.AssessmentRecord{}, err
	}
	s.records[subjectID] = working.Clone()
	return working, nil
}

// AppendHistory appends an entry to the subject's ledger.
func (s *MemStore) AppendHistory(ctx context.Context, subjectID string, entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[subjectID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, subjectID)
	}
	s.history[subjectID] = append(s.history[subjectID], entry.Clone())
	return nil
}

// History returns the subject's entries in insertion order.
func (s *MemStore) History(ctx context.Context, subjectID string) ([]model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[subjectID]
	out := make([]model.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out, nil
}

// Count returns the number of records tracked.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
