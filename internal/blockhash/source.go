// Package blockhash maintains a continuously refreshed, lock-free-readable
// blockhash snapshot fed by a single subscription goroutine.
package blockhash

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/pkg/logger"
)

// ErrNoSnapshotYet is returned by Current before the subscription task has
// completed its first fetch.
var ErrNoSnapshotYet = errors.New("blockhash: no snapshot fetched yet")

// Source is a single-writer, multi-reader blockhash snapshot. Exactly one
// goroutine should run Run; any number of goroutines may call Current
// concurrently without taking a lock.
type Source struct {
	client  *rpc.Client
	logger  *logger.Logger
	current atomic.Pointer[types.BlockhashSnapshot]
}

// NewSource builds a Source backed by client. Call Run to start refreshing
// it.
func NewSource(client *rpc.Client, log *logger.Logger) *Source {
	return &Source{client: client, logger: log.Named("blockhash")}
}

// Current returns the latest known snapshot. Readers always see a coherent
// (blockhash, slot, last-valid-block-height) triple, never a torn update.
func (s *Source) Current() (types.BlockhashSnapshot, error) {
	p := s.current.Load()
	if p == nil {
		return types.BlockhashSnapshot{}, ErrNoSnapshotYet
	}
	return *p, nil
}

// Run polls the cluster for the latest blockhash every interval, atomically
// publishing each successful result, until ctx is cancelled. It is the
// sole writer of the snapshot; callers must not run more than one Run per
// Source.
func (s *Source) Run(ctx context.Context, interval time.Duration) error {
	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("blockhash: initial fetch: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn("blockhash refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *Source) refresh(ctx context.Context) error {
	result, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("fetching latest blockhash: %w", err)
	}

	snapshot := &types.BlockhashSnapshot{
		Blockhash:            result.Value.Blockhash,
		Slot:                 result.Context.Slot,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}
	s.current.Store(snapshot)
	return nil
}
