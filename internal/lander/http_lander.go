package lander

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/galileobot/galileo/internal/iplease"
	"github.com/galileobot/galileo/internal/types"
)

// acquireHTTPClient returns the client a Jito/staked-relay submission should
// use plus a release callback the caller invokes exactly once with whether
// the submission was rate-limited. When pool is nil it returns fallback
// unleased, with a no-op release.
func acquireHTTPClient(pool *iplease.Pool[*http.Client], fallback *http.Client) (*http.Client, func(rateLimited bool), error) {
	if pool == nil {
		return fallback, func(bool) {}, nil
	}
	lease, client, err := pool.Acquire(types.TaskKindLanderSubmit)
	if err != nil {
		return nil, nil, Network(fmt.Errorf("acquiring ip lease: %w", err))
	}
	return client, lease.Release, nil
}

// jsonRPCRequest is the envelope both the Jito and staked-relay adapters
// post, matching the shape internal/defi/jupiter.go uses for its own
// JSON-over-HTTP calls.
type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// postTransaction base64-encodes prepared.Transaction, wraps it in a
// jsonRPCRequest for method, and posts it to endpoint with authToken (if
// non-empty) as a bearer token. Returns the signature string the relay
// reports and whether the response signalled a rate limit (HTTP 429), so
// callers leasing their client from an IP pool know whether to start that
// IP's cooldown clock on release.
func postTransaction(ctx context.Context, client *http.Client, endpoint, authToken, method string, prepared *types.PreparedTransaction) (string, bool, error) {
	encoded, err := prepared.Transaction.ToBase64()
	if err != nil {
		return "", false, Encode(fmt.Errorf("base64-encoding transaction: %w", err))
	}

	reqBody, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  []interface{}{encoded, map[string]string{"encoding": "base64"}},
	})
	if err != nil {
		return "", false, Serde(fmt.Errorf("marshalling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", false, Network(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", false, Network(err)
	}
	defer resp.Body.Close()

	rateLimited := resp.StatusCode == http.StatusTooManyRequests

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", rateLimited, Network(fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", rateLimited, Network(fmt.Errorf("relay returned status %d: %s", resp.StatusCode, body))
	}

	var parsed jsonRPCResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", rateLimited, Serde(fmt.Errorf("decoding response: %w", err))
	}
	if parsed.Error != nil {
		return "", rateLimited, Network(fmt.Errorf("relay error: %s", parsed.Error.Message))
	}
	return parsed.Result, rateLimited, nil
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
