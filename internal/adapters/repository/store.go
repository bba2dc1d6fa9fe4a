// Package repository defines the assessment record store contract and its
// backends.
package repository

import (
	"context"

	"github.com/okian/sift/internal/domain/model"
)

// Store provides access to assessment records and their history ledger.
// Implementations must guarantee single-writer-per-subject atomicity for
// Update and keep history append-only and insertion-ordered.
type Store interface {
	// Create inserts a fresh record. Returns ErrAlreadyExists if the subject
	// already has one.
	Create(ctx context.Context, rec model.AssessmentRecord) error

	// Get returns a copy of the subject's record. Returns ErrNotFound if the
	// subject is unknown.
	Get(ctx context.Context, subjectID string) (model.AssessmentRecord, error)

	// Update atomically applies mutate to the stored record and persists the
	// result, returning the updated copy. If mutate returns an error nothing
	// is persisted and the error is propagated unchanged.
	Update(ctx context.Context, subjectID string, mutate func(*model.AssessmentRecord) error) (model.AssessmentRecord, error)

	// AppendHistory appends an immutable entry to the subject's ledger.
	AppendHistory(ctx context.Context, subjectID string, entry model.HistoryEntry) error

	// History returns the subject's entries in insertion order.
	History(ctx context.Context, subjectID string) ([]model.HistoryEntry, error)

	// Count returns the number of records tracked.
	Count(ctx context.Context) int
}
