package lander

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/types"
)

func TestRPCLanderExpiredDeadlineMakesNoNetworkCall(t *testing.T) {
	// Scenario 3: Deadline = now - 1ms given to the RPC lander; expected
	// Fatal("deadline expired before rpc submission") with no network call.
	client := rpc.New("http://127.0.0.1:1")
	l := NewRPCLander(client, "http://127.0.0.1:1")

	_, err := l.Submit(context.Background(), &types.PreparedTransaction{}, types.DeadlineAt(time.Now().Add(-time.Millisecond)))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}
