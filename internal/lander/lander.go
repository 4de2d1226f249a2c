// Package lander submits a prepared transaction through one or more
// channels, racing them against a shared deadline.
package lander

import (
	"context"

	"github.com/galileobot/galileo/internal/types"
)

// Lander submits a prepared transaction through one channel (a cluster RPC
// node, a Jito block-engine, a staked relay). Implementations must return
// as soon as ctx is done and must never block past deadline.
type Lander interface {
	Name() string
	Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error)
}
