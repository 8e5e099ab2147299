package store

import (
	"errors"

	"gramchain/internal/model"
)

// ErrCorruptState reports that persisted ledger state could not be decoded.
// Callers get empty collections alongside it and may proceed from that
// baseline.
var ErrCorruptState = errors.New("corrupt ledger state")

// RecordStore is the single source of truth for the two ledger collections.
// No caching layer sits in front of it.
type RecordStore interface {
	// Load returns both collections. On first load with no existing data
	// it seeds and persists an empty baseline.
	Load() ([]model.Transaction, []model.Project, error)
	// Save persists both collections wholesale.
	Save(transactions []model.Transaction, projects []model.Project) error
	// Clear removes both collections.
	Clear() error
}
