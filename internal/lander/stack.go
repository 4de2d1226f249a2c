package lander

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/galileobot/galileo/internal/types"
)

// errWon is returned by the first lander goroutine to succeed; it has no
// meaning of its own other than telling errgroup to cancel the shared
// context so the remaining adapters stop racing.
var errWon = errors.New("lander: race won")

// Stack races an ordered list of landers against a shared deadline. The
// first successful receipt wins and the rest are cancelled.
type Stack struct {
	landers []Lander
}

// NewStack builds a Stack over landers, preserving config-file order.
func NewStack(landers ...Lander) *Stack {
	return &Stack{landers: landers}
}

// Submit races every lander in the stack. If none succeed, the last
// non-fatal error observed is returned; a Fatal error from one adapter
// stops that adapter but not its peers.
func (s *Stack) Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	if len(s.landers) == 0 {
		return types.LanderReceipt{}, Fatal("no landers configured")
	}
	if deadline.Expired() {
		return types.LanderReceipt{}, Fatal("deadline expired before stack submission")
	}

	raceCtx, cancel := context.WithDeadline(ctx, deadline.At())
	defer cancel()

	g, gctx := errgroup.WithContext(raceCtx)

	var mu sync.Mutex
	var winner *types.LanderReceipt
	var lastErr error

	for _, ldr := range s.landers {
		ldr := ldr
		g.Go(func() error {
			receipt, err := ldr.Submit(gctx, prepared, deadline)
			if err != nil {
				mu.Lock()
				if !IsFatal(err) || lastErr == nil {
					lastErr = err
				}
				mu.Unlock()
				return nil
			}

			mu.Lock()
			if winner == nil {
				winner = &receipt
			}
			mu.Unlock()
			return errWon
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errWon) {
		return types.LanderReceipt{}, err
	}

	if winner != nil {
		return *winner, nil
	}
	if lastErr == nil {
		lastErr = Fatal("all landers failed without a reported error")
	}
	return types.LanderReceipt{}, lastErr
}
