package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"gramchain/internal/model"
	"gramchain/pkg/circuitbreaker"
	"gramchain/pkg/metrics"
)

// UploadResult is what the pinning service hands back for a document.
type UploadResult struct {
	CID  string
	URL  string
	Size int64
}

// Pinner is the one-call upload boundary.
type Pinner interface {
	Upload(ctx context.Context, filename string, data []byte) (UploadResult, error)
}

// PinClient uploads documents to a Lighthouse-style pinning service and
// fetches them back through its public gateway. Uploads run behind a
// circuit breaker so a dead pinning service fails fast; there are no
// retries and no client-side timeout.
type PinClient struct {
	apiURL     string
	gatewayURL string
	apiKey     string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewPinClient(apiURL, gatewayURL, apiKey string) *PinClient {
	return &PinClient{
		apiURL:     apiURL,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		cb:         circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
	}
}

// The service has been observed to answer in three shapes:
// {data:{Hash,Size}}, {Hash,Size}, and [{Hash,Size}].
type pinEntry struct {
	Hash string `json:"Hash"`
	Size int64  `json:"Size"`
}

func parsePinResponse(raw []byte) (pinEntry, error) {
	var wrapped struct {
		Data pinEntry `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data.Hash != "" {
		return wrapped.Data, nil
	}

	var direct pinEntry
	if err := json.Unmarshal(raw, &direct); err == nil && direct.Hash != "" {
		return direct, nil
	}

	var list []pinEntry
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].Hash != "" {
		return list[0], nil
	}

	return pinEntry{}, fmt.Errorf("unexpected pinning service response: %s", truncate(raw, 200))
}

func (c *PinClient) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	if c.apiKey == "" {
		return UploadResult{}, ErrPinningNotConfigured
	}

	var result UploadResult
	err := c.cb.Execute(func() error {
		start := time.Now()

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		if _, err := part.Write(data); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAttestationCallLatency("upload", "error", time.Since(start))
			return fmt.Errorf("pinning service unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			metrics.RecordAttestationCallLatency("upload", fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
			return fmt.Errorf("pinning service error: %d", resp.StatusCode)
		}

		var raw bytes.Buffer
		if _, err := raw.ReadFrom(resp.Body); err != nil {
			return fmt.Errorf("failed to read pinning service response: %w", err)
		}

		entry, err := parsePinResponse(raw.Bytes())
		if err != nil {
			metrics.RecordAttestationCallLatency("upload", "decode_error", time.Since(start))
			return err
		}

		metrics.RecordAttestationCallLatency("upload", "success", time.Since(start))
		result = UploadResult{
			CID:  entry.Hash,
			URL:  c.gatewayURL + "/" + entry.Hash,
			Size: entry.Size,
		}
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// Fetch retrieves a previously uploaded project document by CID from the
// public gateway.
func (c *PinClient) Fetch(ctx context.Context, cid string) (model.Project, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+"/"+cid, nil)
	if err != nil {
		return model.Project{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAttestationCallLatency("fetch", "error", time.Since(start))
		return model.Project{}, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordAttestationCallLatency("fetch", fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
		return model.Project{}, fmt.Errorf("failed to fetch document: %s", resp.Status)
	}

	var doc model.Project
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		metrics.RecordAttestationCallLatency("fetch", "decode_error", time.Since(start))
		return model.Project{}, fmt.Errorf("malformed gateway response: %w", err)
	}

	metrics.RecordAttestationCallLatency("fetch", "success", time.Since(start))
	return doc, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
