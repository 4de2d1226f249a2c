package lander

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/galileobot/galileo/internal/iplease"
	"github.com/galileobot/galileo/internal/types"
)

// RPCLander submits through a cluster RPC node's sendTransaction method.
// Grounded on original_source's lander::rpc::RpcLander.
type RPCLander struct {
	client   *rpc.Client
	endpoint string
	ipPool   *iplease.Pool[*rpc.Client]
}

// NewRPCLander builds an RPCLander backed by client, labelling receipts
// with endpoint (the client's own URL is not always human-readable).
func NewRPCLander(client *rpc.Client, endpoint string) *RPCLander {
	return &RPCLander{client: client, endpoint: endpoint}
}

// SetIPPool wires submissions through an IP lease pool under
// types.TaskKindLanderSubmit; leaving it unset keeps the lander on its
// fixed client. solana-go's rpc.Client does not surface HTTP status
// separately from its JSON-RPC error values, so unlike the HTTP-based
// landers a submission failure here never starts the leased IP's cooldown
// clock — only the pool's concurrency accounting is exercised.
func (l *RPCLander) SetIPPool(pool *iplease.Pool[*rpc.Client]) {
	l.ipPool = pool
}

// Name implements Lander.
func (l *RPCLander) Name() string {
	return "rpc"
}

// Submit implements Lander.
func (l *RPCLander) Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	if deadline.Expired() {
		return types.LanderReceipt{}, Fatal("deadline expired before rpc submission")
	}

	client := l.client
	release := func(bool) {}
	if l.ipPool != nil {
		lease, leased, err := l.ipPool.Acquire(types.TaskKindLanderSubmit)
		if err != nil {
			return types.LanderReceipt{}, Network(fmt.Errorf("acquiring ip lease: %w", err))
		}
		client = leased
		release = lease.Release
	}

	sig, err := client.SendTransactionWithOpts(ctx, prepared.Transaction, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	release(false)
	if err != nil {
		return types.LanderReceipt{}, Rpc(err)
	}

	return types.LanderReceipt{
		Lander:    l.Name(),
		Endpoint:  l.endpoint,
		Slot:      prepared.Slot,
		Blockhash: prepared.Blockhash,
		Signature: &sig,
	}, nil
}
