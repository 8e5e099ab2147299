package ledger

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"gramchain/internal/model"
	"gramchain/internal/store"
)

// memStore is an in-memory RecordStore for tests.
type memStore struct {
	transactions []model.Transaction
	projects     []model.Project
	saveErr      error
	saves        int
}

func (m *memStore) Load() ([]model.Transaction, []model.Project, error) {
	return append([]model.Transaction{}, m.transactions...), append([]model.Project{}, m.projects...), nil
}

func (m *memStore) Save(txs []model.Transaction, projects []model.Project) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.transactions = append([]model.Transaction{}, txs...)
	m.projects = append([]model.Project{}, projects...)
	m.saves++
	return nil
}

func (m *memStore) Clear() error {
	m.transactions = nil
	m.projects = nil
	return nil
}

type recordedEvent struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	events []recordedEvent
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.events = append(f.events, recordedEvent{routingKey, payload})
	return nil
}

func newTestLedger(t *testing.T) (*Ledger, *memStore, *fakePublisher) {
	t.Helper()
	st := &memStore{}
	pub := &fakePublisher{}
	l, err := NewLedger(st, pub, zap.NewNop())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return l, st, pub
}

func TestAddTransactionBlockHeights(t *testing.T) {
	l, _, _ := newTestLedger(t)

	for i := 0; i < 5; i++ {
		tx, err := l.AddTransaction(model.Transaction{
			From:   "Ministry of Finance",
			To:     "District Council",
			Amount: float64(1000 * (i + 1)),
			Type:   model.TxTypeAllocation,
			Status: model.TxStatusPending,
		})
		if err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
		want := int64(12000 + i + 1)
		if tx.BlockHeight != want {
			t.Errorf("insert %d: block height = %d, want %d", i, tx.BlockHeight, want)
		}
	}

	txs := l.Transactions()
	for i := 1; i < len(txs); i++ {
		if txs[i].BlockHeight != txs[i-1].BlockHeight+1 {
			t.Errorf("block heights not strictly increasing by 1: %d then %d",
				txs[i-1].BlockHeight, txs[i].BlockHeight)
		}
	}
}

func TestAddTransactionFillsSyntheticFields(t *testing.T) {
	l, st, _ := newTestLedger(t)

	tx, err := l.AddTransaction(model.Transaction{
		From:   "A",
		To:     "B",
		Amount: 50,
		Type:   model.TxTypeTransfer,
		Status: model.TxStatusPending,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if len(tx.ID) != 9 {
		t.Errorf("ID = %q, want 9 base-36 chars", tx.ID)
	}
	if !strings.HasPrefix(tx.Hash, "0x") || !strings.HasSuffix(tx.Hash, "...") {
		t.Errorf("Hash = %q, want 0x...-style token", tx.Hash)
	}
	if tx.Timestamp == 0 {
		t.Error("Timestamp not set")
	}
	if st.saves != 1 {
		t.Errorf("store saves = %d, want 1", st.saves)
	}
}

func TestAddTransactionSaveFailureDoesNotAppend(t *testing.T) {
	l, st, _ := newTestLedger(t)
	st.saveErr = errors.New("disk full")

	if _, err := l.AddTransaction(model.Transaction{Amount: 1}); err == nil {
		t.Fatal("expected save error")
	}
	if got := len(l.Transactions()); got != 0 {
		t.Errorf("transactions appended despite save failure: %d", got)
	}
}

func TestTotalFunds(t *testing.T) {
	l, _, _ := newTestLedger(t)

	add := func(amount float64, txType, status string) {
		t.Helper()
		if _, err := l.AddTransaction(model.Transaction{
			Amount: amount, Type: txType, Status: status,
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}

	add(100, model.TxTypeAllocation, model.TxStatusCompleted)
	add(250, model.TxTypeAllocation, model.TxStatusCompleted)
	if got := TotalFunds(l.Transactions()); got != 350 {
		t.Fatalf("TotalFunds = %v, want 350", got)
	}

	// Neither a non-allocation nor a non-completed entry moves the total.
	add(999, model.TxTypePayment, model.TxStatusCompleted)
	add(999, model.TxTypeAllocation, model.TxStatusPending)
	add(999, model.TxTypeTransfer, model.TxStatusApproved)
	if got := TotalFunds(l.Transactions()); got != 350 {
		t.Errorf("TotalFunds after non-qualifying entries = %v, want 350", got)
	}
}

func TestPendingCount(t *testing.T) {
	txs := []model.Transaction{
		{Status: model.TxStatusPending},
		{Status: model.TxStatusCompleted},
		{Status: model.TxStatusPending},
		{Status: model.TxStatusApproved},
	}
	if got := PendingCount(txs); got != 2 {
		t.Errorf("PendingCount = %d, want 2", got)
	}
	if got := PendingCount(nil); got != 0 {
		t.Errorf("PendingCount(nil) = %d, want 0", got)
	}
}

func TestAddProject(t *testing.T) {
	l, _, pub := newTestLedger(t)

	p, err := l.AddProject(model.Project{
		Name:        "Water Supply System",
		Location:    "Village B, District Y",
		TotalBudget: 300000,
		Status:      model.ProjectStatusPlanning,
	})
	if err != nil {
		t.Fatalf("AddProject: %v", err)
	}

	if !strings.HasPrefix(p.ID, "proj_") || len(p.ID) != len("proj_")+6 {
		t.Errorf("ID = %q, want proj_ + 6 chars", p.ID)
	}
	if p.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}
	if p.Milestones == nil {
		t.Error("Milestones should be an empty slice, not nil")
	}
	if len(pub.events) != 1 || pub.events[0].routingKey != "ledger.project.created" {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestAddProjectAttestedRoutingKey(t *testing.T) {
	l, _, pub := newTestLedger(t)

	if _, err := l.AddProject(model.Project{
		Name:      "Signed Project",
		Signature: "0xdeadbeef",
		CreatedBy: "0xabc",
	}); err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].routingKey != "ledger.project.attested" {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestUpdateProjectShallowMerge(t *testing.T) {
	l, _, _ := newTestLedger(t)

	p, err := l.AddProject(model.Project{
		Name:        "Community Center",
		Location:    "District X",
		TotalBudget: 500000,
		Status:      model.ProjectStatusPlanning,
	})
	if err != nil {
		t.Fatalf("AddProject: %v", err)
	}

	if _, err := l.UpdateProject(p.ID, map[string]interface{}{
		"status":         model.ProjectStatusApproved,
		"allocatedFunds": 450000,
	}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}

	got, err := l.Project(p.ID)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got.Status != model.ProjectStatusApproved {
		t.Errorf("Status = %q, want approved", got.Status)
	}
	if got.AllocatedFunds != 450000 {
		t.Errorf("AllocatedFunds = %v, want 450000", got.AllocatedFunds)
	}
	// Untouched fields survive the merge.
	if got.Name != "Community Center" || got.TotalBudget != 500000 {
		t.Errorf("merge clobbered untouched fields: %+v", got)
	}
}

func TestUpdateProjectDisjointPatchesCommute(t *testing.T) {
	patchA := map[string]interface{}{"status": model.ProjectStatusInProgress}
	patchB := map[string]interface{}{"contractor": "ABC Construction Ltd"}

	apply := func(order ...map[string]interface{}) model.Project {
		l, _, _ := newTestLedger(t)
		p, err := l.AddProject(model.Project{Name: "P", TotalBudget: 100})
		if err != nil {
			t.Fatalf("AddProject: %v", err)
		}
		for _, patch := range order {
			if _, err := l.UpdateProject(p.ID, patch); err != nil {
				t.Fatalf("UpdateProject: %v", err)
			}
		}
		got, err := l.Project(p.ID)
		if err != nil {
			t.Fatalf("Project: %v", err)
		}
		return got
	}

	ab := apply(patchA, patchB)
	ba := apply(patchB, patchA)
	merged := apply(map[string]interface{}{
		"status":     model.ProjectStatusInProgress,
		"contractor": "ABC Construction Ltd",
	})

	for name, got := range map[string]model.Project{"a-then-b": ab, "b-then-a": ba, "merged": merged} {
		if got.Status != model.ProjectStatusInProgress || got.Contractor != "ABC Construction Ltd" {
			t.Errorf("%s: status=%q contractor=%q", name, got.Status, got.Contractor)
		}
	}
}

func TestUpdateProjectOverlappingLastWriterWins(t *testing.T) {
	l, _, _ := newTestLedger(t)
	p, err := l.AddProject(model.Project{Name: "P"})
	if err != nil {
		t.Fatalf("AddProject: %v", err)
	}

	for _, status := range []string{model.ProjectStatusApproved, model.ProjectStatusCompleted} {
		if _, err := l.UpdateProject(p.ID, map[string]interface{}{"status": status}); err != nil {
			t.Fatalf("UpdateProject: %v", err)
		}
	}

	got, _ := l.Project(p.ID)
	if got.Status != model.ProjectStatusCompleted {
		t.Errorf("Status = %q, want completed (last writer)", got.Status)
	}
}

func TestUpdateProjectMissingIDIsNoOp(t *testing.T) {
	l, st, _ := newTestLedger(t)

	if _, err := l.AddProject(model.Project{Name: "P"}); err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	savesBefore := st.saves

	if _, err := l.UpdateProject("proj_nothere", map[string]interface{}{"status": "approved"}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if st.saves != savesBefore {
		t.Error("no-op patch should not persist")
	}
}

func TestClear(t *testing.T) {
	l, _, _ := newTestLedger(t)

	if _, err := l.AddTransaction(model.Transaction{Amount: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddProject(model.Project{Name: "P"}); err != nil {
		t.Fatal(err)
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(l.Transactions()) != 0 || len(l.Projects()) != 0 {
		t.Error("collections not empty after clear")
	}
}

func TestRandTokenAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		tok := randToken(9)
		if len(tok) != 9 {
			t.Fatalf("len = %d", len(tok))
		}
		for _, r := range tok {
			if !strings.ContainsRune(base36, r) {
				t.Fatalf("token %q contains %q outside base-36 alphabet", tok, r)
			}
		}
	}
}

func ExampleTotalFunds() {
	txs := []model.Transaction{
		{Amount: 100, Type: model.TxTypeAllocation, Status: model.TxStatusCompleted},
		{Amount: 40, Type: model.TxTypePayment, Status: model.TxStatusCompleted},
	}
	fmt.Println(TotalFunds(txs))
	// Output: 100
}

var _ store.RecordStore = (*memStore)(nil)
