package attest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"gramchain/internal/model"
)

type fakeWallet struct {
	address    string
	signature  string
	accountErr error
	signErr    error
}

func (f *fakeWallet) RequestAccount(ctx context.Context) (string, error) {
	if f.accountErr != nil {
		return "", f.accountErr
	}
	return f.address, nil
}

func (f *fakeWallet) PersonalSign(ctx context.Context, message, address string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return f.signature, nil
}

type fakePinner struct {
	result   UploadResult
	err      error
	uploads  int
	lastData []byte
	lastName string
}

func (f *fakePinner) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	f.uploads++
	f.lastName = filename
	f.lastData = data
	if f.err != nil {
		return UploadResult{}, f.err
	}
	return f.result, nil
}

func TestAttestSuccess(t *testing.T) {
	wallet := &fakeWallet{address: "0xabc123", signature: "0xsigned"}
	pinner := &fakePinner{result: UploadResult{CID: "QmHash", URL: "https://gw/ipfs/QmHash", Size: 321}}
	a := NewAdapter(wallet, pinner, zap.NewNop())

	res, err := a.Attest(context.Background(), model.Project{
		Name:        "Water Supply System",
		TotalBudget: 300000,
	})
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}

	if a.State() != StateSuccess {
		t.Errorf("state = %s, want success", a.State())
	}
	if res.Address != "0xabc123" || res.Signature != "0xsigned" || res.CID != "QmHash" {
		t.Errorf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Message, `"Water Supply System"`) || !strings.Contains(res.Message, "$300000") {
		t.Errorf("message template not filled: %q", res.Message)
	}
	if res.Document.CreatedBy != "0xabc123" {
		t.Errorf("document signer = %q", res.Document.CreatedBy)
	}
	if !strings.Contains(string(pinner.lastData), `"Water Supply System"`) {
		t.Error("uploaded document missing project payload")
	}
}

func TestAttestSignatureRejection(t *testing.T) {
	wallet := &fakeWallet{
		address: "0xabc123",
		signErr: errors.New("user rejected the request: User denied message signature."),
	}
	pinner := &fakePinner{}
	a := NewAdapter(wallet, pinner, zap.NewNop())

	_, err := a.Attest(context.Background(), model.Project{Name: "P", TotalBudget: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	if a.State() != StateError {
		t.Errorf("state = %s, want error", a.State())
	}
	if pinner.uploads != 0 {
		t.Errorf("upload attempted after rejection: %d", pinner.uploads)
	}
}

func TestAttestUserRejectionIsDistinguished(t *testing.T) {
	wallet := &fakeWallet{
		address: "0xabc123",
		signErr: ErrUserRejected,
	}
	a := NewAdapter(wallet, &fakePinner{}, zap.NewNop())

	_, err := a.Attest(context.Background(), model.Project{Name: "P"})
	if !errors.Is(err, ErrUserRejected) {
		t.Errorf("expected ErrUserRejected, got %v", err)
	}
}

func TestAttestWalletNotConfigured(t *testing.T) {
	wallet := &fakeWallet{accountErr: ErrWalletNotConfigured}
	a := NewAdapter(wallet, &fakePinner{}, zap.NewNop())

	_, err := a.Attest(context.Background(), model.Project{Name: "P"})
	if !errors.Is(err, ErrWalletNotConfigured) {
		t.Errorf("expected ErrWalletNotConfigured, got %v", err)
	}
	if a.State() != StateError {
		t.Errorf("state = %s, want error", a.State())
	}
}

func TestAttestUploadFailure(t *testing.T) {
	wallet := &fakeWallet{address: "0xabc", signature: "0xsig"}
	pinner := &fakePinner{err: errors.New("pinning service error: 500")}
	a := NewAdapter(wallet, pinner, zap.NewNop())

	_, err := a.Attest(context.Background(), model.Project{Name: "P"})
	if err == nil {
		t.Fatal("expected error")
	}
	if a.State() != StateError {
		t.Errorf("state = %s, want error", a.State())
	}
}

func TestFormatBudget(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{500000, "500000"},
		{1234.5, "1234.5"},
		{0, "0"},
	}
	for _, c := range cases {
		if got := formatBudget(c.in); got != c.want {
			t.Errorf("formatBudget(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
