// Package strategy is the per-base-mint glue the scheduler drives: it
// tracks each mint's next-ready time, pulls an opportunity and instruction
// variant from an aggregator, compiles it into a transaction, and hands the
// result to the lander stack.
package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/galileobot/galileo/internal/execution"
	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/pkg/logger"
)

// OpportunitySource is implemented by internal/cli's adapter over
// internal/aggregator's client. A nil
// *types.SwapOpportunity with a nil error means no viable route was found
// this attempt, not a failure.
type OpportunitySource interface {
	Quote(ctx context.Context, baseMint solana.PublicKey) (*types.SwapOpportunity, *types.SwapInstructionsVariant, error)
}

// BlockhashSource is implemented by internal/blockhash.Source.
type BlockhashSource interface {
	Current() (types.BlockhashSnapshot, error)
}

// Lander is implemented by internal/lander.Stack.
type Lander interface {
	Submit(ctx context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error)
}

// MintConfig is the per-mint pacing and collaborator configuration the
// engine needs to build an ExecutionPlan.
type MintConfig struct {
	Mint             solana.PublicKey
	ComputeUnitLimit uint32
	PriorityFee      uint64
	BaseTip          uint64
	BaseGuard        uint64
	SubmitDeadline   time.Duration
	Collaborators    execution.Collaborators
}

// mintState is the scheduler-visible pacing state for one base mint. The
// mutex guarantees at most one in-flight tick for this mint at a time, the
// invariant spec.md §5 requires.
type mintState struct {
	cfg         MintConfig
	mu          sync.Mutex
	nextReadyAt time.Time
}

// Engine is a scheduler.StrategyTickSource: each Tick processes every mint
// whose nextReadyAt has passed and returns the minimum delay until the next
// one is ready.
type Engine struct {
	source    OpportunitySource
	blockhash BlockhashSource
	builder   *execution.Builder
	lander    Lander
	logger    *logger.Logger

	idleDelay  time.Duration
	retryDelay time.Duration

	mintsMu sync.Mutex
	mints   []*mintState
}

// NewEngine builds an Engine over the given mints. idleDelay paces a mint
// that produced no opportunity this attempt; retryDelay paces one whose
// attempt failed.
func NewEngine(source OpportunitySource, blockhash BlockhashSource, builder *execution.Builder, lander Lander, log *logger.Logger, mints []MintConfig, idleDelay, retryDelay time.Duration) *Engine {
	states := make([]*mintState, len(mints))
	for i, cfg := range mints {
		states[i] = &mintState{cfg: cfg}
	}
	return &Engine{
		source:     source,
		blockhash:  blockhash,
		builder:    builder,
		lander:     lander,
		logger:     log.Named("strategy"),
		idleDelay:  idleDelay,
		retryDelay: retryDelay,
		mints:      states,
	}
}

// Tick implements scheduler.StrategyTickSource. It runs every ready mint
// concurrently and returns min(next_ready_at - now) across all of them.
func (e *Engine) Tick(ctx context.Context) (time.Duration, error) {
	now := time.Now()

	var wg sync.WaitGroup
	for _, st := range e.mints {
		if now.Before(st.nextReadyAt) {
			continue
		}
		st := st
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runMint(ctx, st)
		}()
	}
	wg.Wait()

	return e.nextDelay(time.Now()), nil
}

// nextDelay computes the minimum delay across every tracked mint, clamped
// to zero.
func (e *Engine) nextDelay(now time.Time) time.Duration {
	min := e.idleDelay
	first := true
	for _, st := range e.mints {
		st.mu.Lock()
		delay := st.nextReadyAt.Sub(now)
		st.mu.Unlock()
		if delay < 0 {
			delay = 0
		}
		if first || delay < min {
			min = delay
			first = false
		}
	}
	if min < 0 {
		min = 0
	}
	return min
}

// runMint performs one attempt for a single base mint: quote, assemble,
// submit, then reschedule. st.mu serializes concurrent ticks for this mint.
func (e *Engine) runMint(ctx context.Context, st *mintState) {
	if !st.mu.TryLock() {
		return
	}
	defer st.mu.Unlock()

	opportunity, variant, err := e.source.Quote(ctx, st.cfg.Mint)
	if err != nil {
		e.logger.Warn("quote failed", zap.String("mint", st.cfg.Mint.String()), zap.Error(err))
		st.nextReadyAt = time.Now().Add(e.retryDelay)
		return
	}
	if opportunity == nil || variant == nil {
		st.nextReadyAt = time.Now().Add(e.idleDelay)
		return
	}

	blockhash, err := e.blockhash.Current()
	if err != nil {
		e.logger.Warn("no blockhash snapshot yet", zap.String("mint", st.cfg.Mint.String()), zap.Error(err))
		st.nextReadyAt = time.Now().Add(e.retryDelay)
		return
	}

	plan := types.ExecutionPlan{
		Opportunity:      *opportunity,
		Variant:          *variant,
		BaseMint:         st.cfg.Mint,
		BaseTip:          st.cfg.BaseTip,
		BaseGuard:        st.cfg.BaseGuard,
		ComputeUnitLimit: st.cfg.ComputeUnitLimit,
		PriorityFee:      st.cfg.PriorityFee,
		Deadline:         types.NewDeadline(st.cfg.SubmitDeadline),
	}

	tx, err := e.builder.Build(plan, st.cfg.Collaborators, blockhash)
	if err != nil {
		e.logger.Warn("assembly failed", zap.String("mint", st.cfg.Mint.String()), zap.Error(err))
		st.nextReadyAt = time.Now().Add(e.retryDelay)
		return
	}

	prepared := &types.PreparedTransaction{Transaction: tx, Slot: blockhash.Slot, Blockhash: blockhash.Blockhash}
	receipt, err := e.lander.Submit(ctx, prepared, plan.Deadline)
	if err != nil {
		e.logger.Warn("submission failed", zap.String("mint", st.cfg.Mint.String()), zap.Error(err))
		st.nextReadyAt = time.Now().Add(e.retryDelay)
		return
	}

	e.logger.Info("landed",
		zap.String("mint", st.cfg.Mint.String()),
		zap.String("lander", receipt.Lander),
		zap.Uint64("slot", receipt.Slot),
	)
	st.nextReadyAt = time.Now().Add(e.idleDelay)
}

// SetLander swaps the Engine's submission target. Used by `galileo dry-run`
// to replace the real lander stack with one that only logs.
func (e *Engine) SetLander(l Lander) {
	e.lander = l
}

// Mint returns the configured mint for index i, for tests and diagnostics.
func (e *Engine) Mint(i int) (solana.PublicKey, error) {
	if i < 0 || i >= len(e.mints) {
		return solana.PublicKey{}, fmt.Errorf("strategy: mint index %d out of range", i)
	}
	return e.mints[i].cfg.Mint, nil
}
