package mq

import "gramchain/internal/model"

// Routing keys on the ledger.events exchange.
const (
	RoutingKeyTransactionRecorded = "ledger.transaction.recorded"
	RoutingKeyProjectCreated      = "ledger.project.created"
	RoutingKeyProjectUpdated      = "ledger.project.updated"
	RoutingKeyProjectAttested     = "ledger.project.attested"
	RoutingKeyLedgerCleared       = "ledger.cleared"
)

type TransactionRecordedPayload struct {
	EventID     string            `json:"event_id"`
	OccurredAt  int64             `json:"occurred_at"`
	Transaction model.Transaction `json:"transaction"`
}

type ProjectCreatedPayload struct {
	EventID    string        `json:"event_id"`
	OccurredAt int64         `json:"occurred_at"`
	Attested   bool          `json:"attested"`
	Project    model.Project `json:"project"`
}

type ProjectUpdatedPayload struct {
	EventID    string                 `json:"event_id"`
	OccurredAt int64                  `json:"occurred_at"`
	ProjectID  string                 `json:"project_id"`
	Patch      map[string]interface{} `json:"patch"`
}

type LedgerClearedPayload struct {
	EventID    string `json:"event_id"`
	OccurredAt int64  `json:"occurred_at"`
}
