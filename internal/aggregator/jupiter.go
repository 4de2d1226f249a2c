// Package aggregator adapts an external swap-route aggregator (Jupiter's
// Ultra/quote API): it fetches quotes and swap transactions and hands each
// swap transaction to the Ultra preparation adapter.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/galileobot/galileo/internal/iplease"
	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/internal/ultra"
	"github.com/galileobot/galileo/pkg/logger"
)

// quoteResponse is the subset of Jupiter's /v6/quote response this client
// consumes.
type quoteResponse struct {
	InputMint    string `json:"inputMint"`
	InAmount     string `json:"inAmount"`
	OutputMint   string `json:"outputMint"`
	OutAmount    string `json:"outAmount"`
	ContextSlot  int64  `json:"contextSlot"`
}

// Quote is the decoded route this client exposes to callers. It carries the
// raw quoteResponse forward so it can be replayed into the swap-transaction
// request without a second round trip.
type Quote struct {
	InputMint  string
	OutputMint string
	InAmount   decimal.Decimal
	OutAmount  decimal.Decimal
	raw        quoteResponse
}

type swapTransactionResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight int64  `json:"lastValidBlockHeight"`
}

// Client is an aggregator adapter grounded on internal/defi/jupiter.go's
// JupiterClient, rewritten to hand its swap transaction off to the Ultra
// preparation adapter and return an *ultra.PreparedSwap rather than a mock
// signature.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ipPool     *iplease.Pool[*http.Client]
	logger     *logger.Logger
	ultra      *ultra.Adapter
}

// NewClient builds an aggregator Client. ultraAdapter decodes, signs, and
// resolves the lookup tables of whatever swap transaction GetSwapVariant
// retrieves.
func NewClient(log *logger.Logger, ultraAdapter *ultra.Adapter) *Client {
	return &Client{
		baseURL: "https://quote-api.jup.ag/v6",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.Named("aggregator"),
		ultra:  ultraAdapter,
	}
}

// SetIPPool wires this client's quote and swap-transaction requests through
// an IP lease pool: each request acquires a lease for TaskKindQuote, fans
// out over the pool's IP-bound http.Client, and releases the lease
// (starting the IP's cooldown on a 429) when the request completes. Leaving
// the pool unset keeps the client on its single fixed httpClient, which is
// the behavior every existing call site and test relies on.
func (c *Client) SetIPPool(pool *iplease.Pool[*http.Client]) {
	c.ipPool = pool
}

// acquireHTTPClient returns the http.Client to use for one outbound request
// plus a release callback the caller must invoke exactly once with whether
// the response signalled a rate limit. When no pool is wired, it returns
// the client's fixed httpClient and a no-op release.
func (c *Client) acquireHTTPClient() (*http.Client, func(rateLimited bool), error) {
	if c.ipPool == nil {
		return c.httpClient, func(bool) {}, nil
	}
	lease, client, err := c.ipPool.Acquire(types.TaskKindQuote)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregator: acquiring ip lease: %w", err)
	}
	return client, lease.Release, nil
}

// GetQuote fetches the best available route for inputMint -> outputMint.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount decimal.Decimal, slippageBps int) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", amount.Mul(decimal.NewFromInt(1_000_000_000)).String())
	params.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	params.Set("onlyDirectRoutes", "false")
	params.Set("asLegacyTransaction", "false")

	reqURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building quote request: %w", err)
	}

	client, release, err := c.acquireHTTPClient()
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		release(false)
		return nil, fmt.Errorf("requesting quote: %w", err)
	}
	defer resp.Body.Close()

	release(resp.StatusCode == http.StatusTooManyRequests)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("quote request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var raw quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}

	inAmount, err := decimal.NewFromString(raw.InAmount)
	if err != nil {
		return nil, fmt.Errorf("parsing quote inAmount %q: %w", raw.InAmount, err)
	}
	outAmount, err := decimal.NewFromString(raw.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("parsing quote outAmount %q: %w", raw.OutAmount, err)
	}

	return &Quote{
		InputMint:  raw.InputMint,
		OutputMint: raw.OutputMint,
		InAmount:   inAmount,
		OutAmount:  outAmount,
		raw:        raw,
	}, nil
}

// GetSwapVariant requests a swap transaction for quote, hands it through the
// Ultra preparation adapter, and returns it as a PreparedSwap ready for
// finalization and assembly. This closes the loop the teacher's
// ExecuteSwap left as a "mock signature" stub.
func (c *Client) GetSwapVariant(ctx context.Context, quote *Quote, userPublicKey solana.PublicKey, signer solana.PrivateKey) (*ultra.PreparedSwap, error) {
	reqBody, err := json.Marshal(struct {
		QuoteResponse     quoteResponse `json:"quoteResponse"`
		UserPublicKey     string        `json:"userPublicKey"`
		WrapUnwrapSOL     bool          `json:"wrapAndUnwrapSol"`
		UseSharedAccounts bool          `json:"useSharedAccounts"`
	}{
		QuoteResponse:     quote.raw,
		UserPublicKey:     userPublicKey.String(),
		WrapUnwrapSOL:     true,
		UseSharedAccounts: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling swap request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/swap", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("building swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client, release, err := c.acquireHTTPClient()
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		release(false)
		return nil, fmt.Errorf("requesting swap transaction: %w", err)
	}
	defer resp.Body.Close()

	release(resp.StatusCode == http.StatusTooManyRequests)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("swap request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var swapResp swapTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&swapResp); err != nil {
		return nil, fmt.Errorf("decoding swap response: %w", err)
	}

	prepared, err := c.ultra.Prepare(ctx, swapResp.SwapTransaction, signer)
	if err != nil {
		return nil, fmt.Errorf("preparing ultra swap: %w", err)
	}
	return prepared, nil
}
