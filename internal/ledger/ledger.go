package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	contracts "gramchain/contracts/mq"
	"gramchain/internal/model"
	"gramchain/internal/store"
	"gramchain/pkg/metrics"
)

// baseBlockHeight is the offset the synthetic block counter starts from.
// It mimics chain vocabulary and nothing else.
const baseBlockHeight = 12000

// ErrProjectNotFound is returned by project lookups; UpdateProject
// deliberately does NOT return it (a patch on a missing ID is a no-op).
var ErrProjectNotFound = errors.New("project not found")

// EventPublisher is the slice of pkg/mq.Publisher the ledger needs.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Ledger owns the two append-only collections and is the only writer to
// the record store. A single mutex serializes mutations: every write is a
// whole-collection save, so concurrent handlers would otherwise tear the
// persisted arrays. Within that lock the semantics stay last-writer-wins.
type Ledger struct {
	mu           sync.Mutex
	store        store.RecordStore
	transactions []model.Transaction
	projects     []model.Project

	publisher EventPublisher // optional, best-effort
	logger    *zap.Logger
}

// NewLedger loads the current state. Corrupt persisted state is logged
// and replaced by the empty baseline rather than refusing to start.
func NewLedger(st store.RecordStore, publisher EventPublisher, logger *zap.Logger) (*Ledger, error) {
	transactions, projects, err := st.Load()
	if err != nil {
		if !errors.Is(err, store.ErrCorruptState) {
			return nil, fmt.Errorf("failed to load ledger: %w", err)
		}
		logger.Warn("Ledger state corrupt, starting from empty baseline", zap.Error(err))
	}

	return &Ledger{
		store:        st,
		transactions: transactions,
		projects:     projects,
		publisher:    publisher,
		logger:       logger,
	}, nil
}

// AddTransaction fills the synthetic fields on partial, appends it and
// persists. No validation: amount sign, role and referenced project are
// taken as given.
func (l *Ledger) AddTransaction(partial model.Transaction) (model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := partial
	tx.ID = randToken(9)
	tx.Hash = pseudoHash()
	tx.Timestamp = nowMillis()
	tx.BlockHeight = baseBlockHeight + int64(len(l.transactions)) + 1

	updated := append(append([]model.Transaction{}, l.transactions...), tx)
	if err := l.store.Save(updated, l.projects); err != nil {
		return model.Transaction{}, err
	}
	l.transactions = updated

	metrics.IncrementLedgerAppend("transaction")
	l.logger.Info("Transaction recorded",
		zap.String("id", tx.ID),
		zap.String("type", tx.Type),
		zap.Float64("amount", tx.Amount),
		zap.Int64("block_height", tx.BlockHeight),
	)

	l.publish(contracts.RoutingKeyTransactionRecorded, contracts.TransactionRecordedPayload{
		EventID:     randToken(12),
		OccurredAt:  tx.Timestamp,
		Transaction: tx,
	})

	return tx, nil
}

// AddProject fills identifier and creation timestamp, appends and
// persists. Milestones are stored exactly as given, empty included.
func (l *Ledger) AddProject(partial model.Project) (model.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := partial
	p.ID = "proj_" + randToken(6)
	p.CreatedAt = nowMillis()
	if p.Milestones == nil {
		p.Milestones = []model.Milestone{}
	}

	updated := append(append([]model.Project{}, l.projects...), p)
	if err := l.store.Save(l.transactions, updated); err != nil {
		return model.Project{}, err
	}
	l.projects = updated

	metrics.IncrementLedgerAppend("project")
	l.logger.Info("Project recorded",
		zap.String("id", p.ID),
		zap.String("name", p.Name),
		zap.Float64("total_budget", p.TotalBudget),
		zap.Bool("attested", p.Signature != ""),
	)

	routingKey := contracts.RoutingKeyProjectCreated
	if p.Signature != "" {
		routingKey = contracts.RoutingKeyProjectAttested
	}
	l.publish(routingKey, contracts.ProjectCreatedPayload{
		EventID:    randToken(12),
		OccurredAt: p.CreatedAt,
		Attested:   p.Signature != "",
		Project:    p,
	})

	return p, nil
}

// UpdateProject shallow-merges patch into the project with the given ID.
// Missing ID is a silent no-op; overlapping fields take the last writer's
// value. There is no revision check.
func (l *Ledger) UpdateProject(id string, patch map[string]interface{}) (model.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.projects {
		if l.projects[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Project{}, nil
	}

	merged, err := mergeProject(l.projects[idx], patch)
	if err != nil {
		return model.Project{}, err
	}

	updated := append([]model.Project{}, l.projects...)
	updated[idx] = merged
	if err := l.store.Save(l.transactions, updated); err != nil {
		return model.Project{}, err
	}
	l.projects = updated

	l.logger.Info("Project updated",
		zap.String("id", id),
		zap.Int("patched_fields", len(patch)),
	)

	l.publish(contracts.RoutingKeyProjectUpdated, contracts.ProjectUpdatedPayload{
		EventID:    randToken(12),
		OccurredAt: nowMillis(),
		ProjectID:  id,
		Patch:      patch,
	})

	return merged, nil
}

// Clear empties both collections. This is the only destroy path.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Clear(); err != nil {
		return err
	}
	l.transactions = []model.Transaction{}
	l.projects = []model.Project{}

	metrics.LedgerClearCount.Inc()
	l.logger.Info("Ledger cleared")

	l.publish(contracts.RoutingKeyLedgerCleared, contracts.LedgerClearedPayload{
		EventID:    randToken(12),
		OccurredAt: nowMillis(),
	})

	return nil
}

// Transactions returns a copy of the transaction collection.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Transaction{}, l.transactions...)
}

// Projects returns a copy of the project collection.
func (l *Ledger) Projects() []model.Project {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Project{}, l.projects...)
}

// Project returns a single project by ID.
func (l *Ledger) Project(id string) (model.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.projects {
		if l.projects[i].ID == id {
			return l.projects[i], nil
		}
	}
	return model.Project{}, ErrProjectNotFound
}

func (l *Ledger) publish(routingKey string, payload any) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(routingKey, payload); err != nil {
		// Event publishing is a side effect, never a failure of the
		// ledger operation itself.
		l.logger.Error("Failed to publish ledger event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

// mergeProject applies a JSON-object-spread style shallow merge: patch
// keys overwrite top-level fields wholesale, milestones included.
func mergeProject(p model.Project, patch map[string]interface{}) (model.Project, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return model.Project{}, err
	}
	base := map[string]interface{}{}
	if err := json.Unmarshal(raw, &base); err != nil {
		return model.Project{}, err
	}

	for k, v := range patch {
		base[k] = v
	}

	mergedRaw, err := json.Marshal(base)
	if err != nil {
		return model.Project{}, err
	}
	var merged model.Project
	if err := json.Unmarshal(mergedRaw, &merged); err != nil {
		return model.Project{}, fmt.Errorf("invalid patch: %w", err)
	}
	return merged, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
