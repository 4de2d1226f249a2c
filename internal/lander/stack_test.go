package lander

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/types"
)

type stubLander struct {
	name  string
	delay time.Duration
	sig   solana.Signature
	err   error
}

func (s *stubLander) Name() string { return s.name }

func (s *stubLander) Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return types.LanderReceipt{}, Fatal("cancelled")
	}
	if s.err != nil {
		return types.LanderReceipt{}, s.err
	}
	return types.LanderReceipt{Lander: s.name, Signature: &s.sig}, nil
}

func TestStackFirstSuccessWins(t *testing.T) {
	// Scenario 6: RPC succeeds at T+20ms with S, Jito at T+30ms with S'.
	// Stack receipt is S.
	var sigA, sigB solana.Signature
	sigA[0] = 0xAA
	sigB[0] = 0xBB

	stack := NewStack(
		&stubLander{name: "rpc", delay: 20 * time.Millisecond, sig: sigA},
		&stubLander{name: "jito", delay: 30 * time.Millisecond, sig: sigB},
	)

	receipt, err := stack.Submit(context.Background(), &types.PreparedTransaction{}, types.NewDeadline(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "rpc", receipt.Lander)
	assert.Equal(t, sigA, *receipt.Signature)
}

func TestStackReturnsLastErrorWhenAllFail(t *testing.T) {
	stack := NewStack(
		&stubLander{name: "rpc", err: Rpc(assertErr{"boom-rpc"})},
		&stubLander{name: "jito", err: Network(assertErr{"boom-jito"})},
	)

	_, err := stack.Submit(context.Background(), &types.PreparedTransaction{}, types.NewDeadline(time.Second))
	require.Error(t, err)
}

func TestStackExpiredDeadlineNeverSubmits(t *testing.T) {
	// Scenario 3 / property 5: expired deadline yields a fatal error with
	// no adapter call.
	calledCh := make(chan struct{}, 1)
	rpcLander := &countingLander{stubLander: stubLander{name: "rpc"}, called: calledCh}
	stack := NewStack(rpcLander)

	_, err := stack.Submit(context.Background(), &types.PreparedTransaction{}, types.DeadlineAt(time.Now().Add(-time.Millisecond)))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	select {
	case <-calledCh:
		t.Fatal("lander adapter was called despite expired deadline")
	default:
	}
}

type countingLander struct {
	stubLander
	called chan struct{}
}

func (c *countingLander) Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	c.called <- struct{}{}
	return c.stubLander.Submit(ctx, prepared, deadline)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
