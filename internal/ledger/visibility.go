package ledger

import (
	"gramchain/internal/model"
	"gramchain/pkg/rbac"
)

// VisibleProjects filters the project collection down to what the viewer's
// role may see. Contractors see only projects naming them as contractor,
// by case-sensitive name equality; every other role sees everything.
// This is presentation filtering only, storage is unrestricted.
func VisibleProjects(projects []model.Project, role, viewerName string) []model.Project {
	if role != rbac.RoleContractor {
		return append([]model.Project{}, projects...)
	}

	visible := []model.Project{}
	for _, p := range projects {
		if p.Contractor == viewerName {
			visible = append(visible, p)
		}
	}
	return visible
}

// VisibleTransactions filters transactions for the viewer. Public and
// government see all; other roles see only entries where they are sender
// or recipient by name match.
func VisibleTransactions(transactions []model.Transaction, role, viewerName string) []model.Transaction {
	if role == rbac.RolePublic || role == rbac.RoleGovernment {
		return append([]model.Transaction{}, transactions...)
	}

	visible := []model.Transaction{}
	for _, tx := range transactions {
		if tx.From == viewerName || tx.To == viewerName {
			visible = append(visible, tx)
		}
	}
	return visible
}
