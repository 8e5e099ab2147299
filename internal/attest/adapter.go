package attest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"gramchain/internal/model"
)

// State of a flow through the adapter. The machine is linear with no
// retries: idle → connecting → signing → uploading → success, and any
// failure drops straight to error.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateSigning    State = "signing"
	StateUploading  State = "uploading"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// messageTemplate is the fixed human-readable text the wallet signs.
const messageTemplate = `I am creating a new project "%s" with budget $%s on GramChain. This signature confirms my authorization for this project creation.`

// Result decorates a project record. Signature and CID are stored as
// opaque fields; nothing downstream verifies them.
type Result struct {
	Address   string
	Message   string
	Signature string
	CID       string
	URL       string
	Document  model.Project
}

// Adapter runs the wallet-signature-plus-upload flow during project
// creation. No intermediate step has side effects outside the returned
// Result, so a failure needs no rollback.
type Adapter struct {
	wallet WalletClient
	pinner Pinner
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

func NewAdapter(wallet WalletClient, pinner Pinner, logger *zap.Logger) *Adapter {
	return &Adapter{
		wallet: wallet,
		pinner: pinner,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the adapter's current flow state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Attest connects to the wallet, signs the fixed project message and
// uploads the full project document to the pinning service.
func (a *Adapter) Attest(ctx context.Context, project model.Project) (Result, error) {
	a.setState(StateConnecting)
	address, err := a.wallet.RequestAccount(ctx)
	if err != nil {
		return a.fail("wallet connection failed", err)
	}
	a.logger.Info("Wallet connected", zap.String("address", address))

	message := fmt.Sprintf(messageTemplate, project.Name, formatBudget(project.TotalBudget))

	a.setState(StateSigning)
	signature, err := a.wallet.PersonalSign(ctx, message, address)
	if err != nil {
		return a.fail("signature request failed", err)
	}
	a.logger.Info("Project message signed", zap.String("address", address))

	// The uploaded document is the full project payload, signer and
	// timestamp included.
	doc := project
	doc.CreatedBy = address
	doc.Signature = signature
	if doc.CreatedAt == 0 {
		doc.CreatedAt = time.Now().UnixMilli()
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return a.fail("failed to encode project document", err)
	}

	a.setState(StateUploading)
	filename := fmt.Sprintf("project-%d.json", time.Now().UnixMilli())
	upload, err := a.pinner.Upload(ctx, filename, data)
	if err != nil {
		return a.fail("document upload failed", err)
	}
	a.logger.Info("Project document pinned",
		zap.String("cid", upload.CID),
		zap.String("url", upload.URL),
		zap.Int64("size", upload.Size),
	)

	a.setState(StateSuccess)
	return Result{
		Address:   address,
		Message:   message,
		Signature: signature,
		CID:       upload.CID,
		URL:       upload.URL,
		Document:  doc,
	}, nil
}

func (a *Adapter) fail(msg string, err error) (Result, error) {
	a.setState(StateError)
	a.logger.Error("Attestation flow failed", zap.String("step", msg), zap.Error(err))
	return Result{}, fmt.Errorf("%s: %w", msg, err)
}

// formatBudget renders the budget the way the signed template expects,
// without a trailing fraction for whole amounts.
func formatBudget(budget float64) string {
	return strconv.FormatFloat(budget, 'f', -1, 64)
}
