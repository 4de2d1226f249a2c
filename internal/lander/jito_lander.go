package lander

import (
	"context"
	"net/http"

	"github.com/gagliardetto/solana-go"

	"github.com/galileobot/galileo/internal/iplease"
	"github.com/galileobot/galileo/internal/types"
)

// JitoLander submits through a Jito block-engine's HTTP JSON-RPC endpoint,
// calling sendTransaction. Grounded on the teacher's net/http JSON client shape in
// internal/defi/jupiter.go.
type JitoLander struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	ipPool     *iplease.Pool[*http.Client]
}

// NewJitoLander builds a JitoLander posting to endpoint.
func NewJitoLander(endpoint, authToken string) *JitoLander {
	return &JitoLander{endpoint: endpoint, authToken: authToken, httpClient: defaultHTTPClient()}
}

// SetIPPool wires submissions through an IP lease pool under
// types.TaskKindLanderSubmit; leaving it unset keeps the lander on its
// fixed httpClient.
func (l *JitoLander) SetIPPool(pool *iplease.Pool[*http.Client]) {
	l.ipPool = pool
}

// Name implements Lander.
func (l *JitoLander) Name() string {
	return "jito"
}

// Submit implements Lander.
func (l *JitoLander) Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	if deadline.Expired() {
		return types.LanderReceipt{}, Fatal("deadline expired before jito submission")
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
