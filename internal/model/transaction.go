package model

// Transaction is one append-only ledger entry. Hash and BlockHeight are
// decorative: the hash is a random token with no content binding and the
// block height is a local counter, not chain state.
type Transaction struct {
	ID          string  `json:"id"`
	Hash        string  `json:"hash"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"` // allocation / transfer / payment
	ProjectID   string  `json:"projectId,omitempty"`
	Description string  `json:"description"`
	Timestamp   int64   `json:"timestamp"` // unix milliseconds
	Status      string  `json:"status"`    // pending / approved / completed
	BlockHeight int64   `json:"blockHeight"`
}

// Transaction type values.
const (
	TxTypeAllocation = "allocation"
	TxTypeTransfer   = "transfer"
	TxTypePayment    = "payment"
)

// Transaction status values. No transition guard exists; status moves by
// free-form patches exactly like every other field.
const (
	TxStatusPending   = "pending"
	TxStatusApproved  = "approved"
	TxStatusCompleted = "completed"
)
