package attest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func walletServer(t *testing.T, handler func(method string, params []any) (any, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestRequestAccount(t *testing.T) {
	srv := walletServer(t, func(method string, params []any) (any, *rpcError) {
		if method != "eth_requestAccounts" {
			t.Errorf("method = %q", method)
		}
		return []string{"0xabc123", "0xdef456"}, nil
	})
	defer srv.Close()

	c := NewRPCWalletClient(srv.URL)
	addr, err := c.RequestAccount(context.Background())
	if err != nil {
		t.Fatalf("RequestAccount: %v", err)
	}
	if addr != "0xabc123" {
		t.Errorf("address = %q, want first account", addr)
	}
}

func TestRequestAccountRejected(t *testing.T) {
	srv := walletServer(t, func(method string, params []any) (any, *rpcError) {
		return nil, &rpcError{Code: 4001, Message: "User rejected the request."}
	})
	defer srv.Close()

	c := NewRPCWalletClient(srv.URL)
	_, err := c.RequestAccount(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Errorf("expected ErrUserRejected, got %v", err)
	}
}

func TestPersonalSign(t *testing.T) {
	srv := walletServer(t, func(method string, params []any) (any, *rpcError) {
		if method != "personal_sign" {
			t.Errorf("method = %q", method)
		}
		if len(params) != 2 || params[0] != "hello" || params[1] != "0xabc" {
			t.Errorf("params = %v", params)
		}
		return "0xsignature", nil
	})
	defer srv.Close()

	c := NewRPCWalletClient(srv.URL)
	sig, err := c.PersonalSign(context.Background(), "hello", "0xabc")
	if err != nil {
		t.Fatalf("PersonalSign: %v", err)
	}
	if sig != "0xsignature" {
		t.Errorf("signature = %q", sig)
	}
}

func TestPersonalSignProviderError(t *testing.T) {
	srv := walletServer(t, func(method string, params []any) (any, *rpcError) {
		return nil, &rpcError{Code: -32603, Message: "internal error"}
	})
	defer srv.Close()

	c := NewRPCWalletClient(srv.URL)
	_, err := c.PersonalSign(context.Background(), "m", "0xabc")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUserRejected) {
		t.Error("non-4001 error must not classify as rejection")
	}
}

func TestWalletNotConfigured(t *testing.T) {
	c := NewRPCWalletClient("")
	if _, err := c.RequestAccount(context.Background()); !errors.Is(err, ErrWalletNotConfigured) {
		t.Errorf("expected ErrWalletNotConfigured, got %v", err)
	}
	if _, err := c.PersonalSign(context.Background(), "m", "a"); !errors.Is(err, ErrWalletNotConfigured) {
		t.Errorf("expected ErrWalletNotConfigured, got %v", err)
	}
}
