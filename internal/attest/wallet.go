package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gramchain/pkg/metrics"
)

// userRejectedCode is the EIP-1193 error code a wallet provider returns
// when the user dismisses a prompt.
const userRejectedCode = 4001

// WalletClient is the two-call wallet boundary: one account request, one
// personal-message signature.
type WalletClient interface {
	RequestAccount(ctx context.Context) (string, error)
	PersonalSign(ctx context.Context, message, address string) (string, error)
}

// RPCWalletClient talks JSON-RPC to a wallet signer endpoint. Calls carry
// no client-side timeout; they fail only when the provider itself errors.
type RPCWalletClient struct {
	rpcURL     string
	httpClient *http.Client
}

func NewRPCWalletClient(rpcURL string) *RPCWalletClient {
	return &RPCWalletClient{
		rpcURL:     rpcURL,
		httpClient: &http.Client{},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// RequestAccount asks the provider for its active account.
func (c *RPCWalletClient) RequestAccount(ctx context.Context) (string, error) {
	if c.rpcURL == "" {
		return "", ErrWalletNotConfigured
	}

	var accounts []string
	if err := c.call(ctx, "eth_requestAccounts", nil, &accounts); err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no accounts available from wallet provider")
	}
	return accounts[0], nil
}

// PersonalSign requests a personal-message signature from the account.
func (c *RPCWalletClient) PersonalSign(ctx context.Context, message, address string) (string, error) {
	if c.rpcURL == "" {
		return "", ErrWalletNotConfigured
	}

	var signature string
	if err := c.call(ctx, "personal_sign", []any{message, address}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

func (c *RPCWalletClient) call(ctx context.Context, method string, params []any, result any) error {
	start := time.Now()
	step := "connect"
	if method == "personal_sign" {
		step = "sign"
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAttestationCallLatency(step, "error", time.Since(start))
		return fmt.Errorf("wallet provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordAttestationCallLatency(step, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
		return fmt.Errorf("wallet provider error: %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		metrics.RecordAttestationCallLatency(step, "decode_error", time.Since(start))
		return fmt.Errorf("malformed wallet provider response: %w", err)
	}

	if rpcResp.Error != nil {
		metrics.RecordAttestationCallLatency(step, "rpc_error", time.Since(start))
		if rpcResp.Error.Code == userRejectedCode {
			return fmt.Errorf("%w: %s", ErrUserRejected, rpcResp.Error.Message)
		}
		return fmt.Errorf("wallet provider error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	metrics.RecordAttestationCallLatency(step, "success", time.Since(start))
	return json.Unmarshal(rpcResp.Result, result)
}
