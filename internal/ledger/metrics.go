package ledger

import "gramchain/internal/model"

// TotalFunds sums the amounts of completed allocation transactions.
// Recomputed from scratch on every call; the collections are small.
func TotalFunds(transactions []model.Transaction) float64 {
	var sum float64
	for _, tx := range transactions {
		if tx.Status == model.TxStatusCompleted && tx.Type == model.TxTypeAllocation {
			sum += tx.Amount
		}
	}
	return sum
}

// PendingCount counts transactions still pending.
func PendingCount(transactions []model.Transaction) int {
	count := 0
	for _, tx := range transactions {
		if tx.Status == model.TxStatusPending {
			count++
		}
	}
	return count
}
