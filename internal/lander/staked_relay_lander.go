package lander

import (
	"context"
	"net/http"

	"github.com/gagliardetto/solana-go"

	"github.com/galileobot/galileo/internal/iplease"
	"github.com/galileobot/galileo/internal/types"
)

// StakedRelayLander submits through a staked-validator relay's HTTP
// endpoint, the same request/response shape and sendTransaction method as
// JitoLander but against a different upstream.
type StakedRelayLander struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	ipPool     *iplease.Pool[*http.Client]
}

// NewStakedRelayLander builds a StakedRelayLander posting to endpoint.
func NewStakedRelayLander(endpoint, authToken string) *StakedRelayLander {
	return &StakedRelayLander{endpoint: endpoint, authToken: authToken, httpClient: defaultHTTPClient()}
}

// SetIPPool wires submissions through an IP lease pool under
// types.TaskKindLanderSubmit; leaving it unset keeps the lander on its
// fixed httpClient.
func (l *StakedRelayLander) SetIPPool(pool *iplease.Pool[*http.Client]) {
	l.ipPool = pool
}

// Name implements Lander.
func (l *StakedRelayLander) Name() string {
	return "staked_relay"
}

// Submit implements Lander.
func (l *StakedRelayLander) Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	if deadline.Expired() {
		return types.LanderReceipt{}, Fatal("deadline expired before staked relay submission")
	}

	client, release, err := acquireHTTPClient(l.ipPool, l.httpClient)
	if err != nil {
		return types.LanderReceipt{}, err
	}
	result, rateLimited, err := postTransaction(ctx, client, l.endpoint, l.authToken, "sendTransaction", prepared)
	release(rateLimited)
	if err != nil {
		return types.LanderReceipt{}, err
	}

	sig, err := solana.SignatureFromBase58(result)
	if err != nil {
		return types.LanderReceipt{}, Serde(err)
	}

	return types.LanderReceipt{
		Lander:    l.Name(),
		Endpoint:  l.endpoint,
		Slot:      prepared.Slot,
		Blockhash: prepared.Blockhash,
		Signature: &sig,
	}, nil
}
