package types

import (
	"net"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Deadline wraps an absolute monotonic instant after which submission is
// forbidden. Always construct it from time.Now(), never from a parsed
// timestamp, so the monotonic reading survives.
type Deadline struct {
	at time.Time
}

// NewDeadline returns a Deadline that expires after d from now.
func NewDeadline(d time.Duration) Deadline {
	return Deadline{at: time.Now().Add(d)}
}

// DeadlineAt wraps an already-computed instant.
func DeadlineAt(at time.Time) Deadline {
	return Deadline{at: at}
}

// Expired reports whether the deadline has passed. Free-running: it takes no
// lock and blocks on nothing.
func (d Deadline) Expired() bool {
	return time.Now().After(d.at)
}

// Remaining returns the time left until expiry; negative once expired.
func (d Deadline) Remaining() time.Duration {
	return time.Until(d.at)
}

// At returns the underlying instant.
func (d Deadline) At() time.Time {
	return d.at
}

// ExecutionPlan is the typed hand-off from the assembly/strategy layer to the
// lander stack. Consumed exactly once.
type ExecutionPlan struct {
	Opportunity      SwapOpportunity
	Variant          SwapInstructionsVariant
	BaseMint         solana.PublicKey
	BaseTip          uint64
	BaseGuard        uint64
	ComputeUnitLimit uint32
	PriorityFee      uint64
	Deadline         Deadline
}

// BlockhashSnapshot is a consistent (blockhash, slot, last-valid-block-height)
// triple. Continuously replaced by the single-writer subscription task.
type BlockhashSnapshot struct {
	Blockhash            solana.Hash
	Slot                 uint64
	LastValidBlockHeight uint64
}

// PreparedTransaction is a fully signed, blockhash-anchored transaction ready
// to submit through the lander stack.
type PreparedTransaction struct {
	Transaction *solana.Transaction
	Slot        uint64
	Blockhash   solana.Hash
}

// LanderReceipt is emitted by the first lander adapter to succeed.
type LanderReceipt struct {
	Lander    string
	Endpoint  string
	Slot      uint64
	Blockhash solana.Hash
	Signature *solana.Signature
}

// TaskKind distinguishes outbound-task categories for IP lease accounting
// and per-kind concurrency limits.
type TaskKind string

const (
	TaskKindQuote       TaskKind = "quote"
	TaskKindLanderSubmit TaskKind = "lander_submit"
)

// IpLease is a scoped acquisition of a local source IP for one outbound
// task. Release must be called exactly once, typically via defer.
type IpLease struct {
	IP            net.IP
	TaskKind      TaskKind
	AcquiredAt    time.Time
	CooldownUntil time.Time

	releaseFn func(rateLimited bool)
	released  bool
}

// NewIpLease constructs a lease bound to a release callback; internal/iplease
// is the only expected caller.
func NewIpLease(ip net.IP, kind TaskKind, releaseFn func(rateLimited bool)) *IpLease {
	return &IpLease{
		IP:         ip,
		TaskKind:   kind,
		AcquiredAt: time.Now(),
		releaseFn:  releaseFn,
	}
}

// Release returns the lease's concurrency slot. If rateLimited is true, the
// pool starts the IP's cooldown clock. Safe to call more than once; only the
// first call has effect.
func (l *IpLease) Release(rateLimited bool) {
	if l.released {
		return
	}
	l.released = true
	if l.releaseFn != nil {
		l.releaseFn(rateLimited)
	}
}
