package store

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"gramchain/internal/model"
)

const (
	keyTransactions = "ledger:transactions"
	keyProjects     = "ledger:projects"
)

// BadgerStore persists each collection as a single JSON array value.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

func NewBadgerStore(db *badger.DB, logger *zap.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logger,
	}
}

// Open opens the Badger directory at path.
func Open(path string, logger *zap.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}
	return db, nil
}

func (s *BadgerStore) Load() ([]model.Transaction, []model.Project, error) {
	var rawTxs, rawProjects []byte
	seeded := false

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rawTxs, err = readValue(txn, keyTransactions)
		if err != nil {
			return err
		}
		rawProjects, err = readValue(txn, keyProjects)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ledger state: %w", err)
	}

	// First run: persist the empty baseline immediately so subsequent
	// loads see deterministic state rather than absent keys.
	if rawTxs == nil && rawProjects == nil {
		if err := s.Save([]model.Transaction{}, []model.Project{}); err != nil {
			return nil, nil, err
		}
		s.logger.Info("Seeded empty ledger state")
		seeded = true
	}

	transactions := []model.Transaction{}
	projects := []model.Project{}
	if seeded {
		return transactions, projects, nil
	}

	if rawTxs != nil {
		if err := json.Unmarshal(rawTxs, &transactions); err != nil {
			s.logger.Error("Corrupt transaction collection, falling back to empty", zap.Error(err))
			return []model.Transaction{}, []model.Project{}, fmt.Errorf("%w: transactions: %v", ErrCorruptState, err)
		}
	}
	if rawProjects != nil {
		if err := json.Unmarshal(rawProjects, &projects); err != nil {
			s.logger.Error("Corrupt project collection, falling back to empty", zap.Error(err))
			return []model.Transaction{}, []model.Project{}, fmt.Errorf("%w: projects: %v", ErrCorruptState, err)
		}
	}

	return transactions, projects, nil
}

func (s *BadgerStore) Save(transactions []model.Transaction, projects []model.Project) error {
	txsJSON, err := json.Marshal(transactions)
	if err != nil {
		return fmt.Errorf("failed to encode transactions: %w", err)
	}
	projectsJSON, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyTransactions), txsJSON); err != nil {
			return err
		}
		return txn.Set([]byte(keyProjects), projectsJSON)
	})
	if err != nil {
		return fmt.Errorf("failed to write ledger state: %w", err)
	}
	return nil
}

func (s *BadgerStore) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyTransactions)); err != nil {
			return err
		}
		return txn.Delete([]byte(keyProjects))
	})
	if err != nil {
		return fmt.Errorf("failed to clear ledger state: %w", err)
	}
	s.logger.Info("Ledger state cleared")
	return nil
}

func readValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}
