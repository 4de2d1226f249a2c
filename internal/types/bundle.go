package types

import (
	"math"

	"github.com/gagliardetto/solana-go"
)

// GuardStrategy selects how much of the jito tip / prioritization fee budget
// is folded into the profit guard's required delta.
type GuardStrategy int

const (
	// GuardBasePlusTip folds the jito tip budget into the guard.
	GuardBasePlusTip GuardStrategy = iota
	// GuardBasePlusPrioritizationFee folds the prioritization fee into the guard.
	GuardBasePlusPrioritizationFee
	// GuardBasePlusTipAndPrioritizationFee folds both into the guard.
	GuardBasePlusTipAndPrioritizationFee
)

func (g GuardStrategy) String() string {
	switch g {
	case GuardBasePlusTip:
		return "base_plus_tip"
	case GuardBasePlusPrioritizationFee:
		return "base_plus_prioritization_fee"
	case GuardBasePlusTipAndPrioritizationFee:
		return "base_plus_tip_and_prioritization_fee"
	default:
		return "unknown"
	}
}

// TipPlan describes a jito-style tip transfer the Tip decorator may append.
type TipPlan struct {
	Lamports  uint64
	Recipient solana.PublicKey
}

// FlashloanMetadata is the purely observational record a flash-loan manager
// leaves on the assembly context when it wraps a swap.
type FlashloanMetadata struct {
	Protocol           string
	BorrowedMint       solana.PublicKey
	BorrowAmount       uint64
	InnerInstructionCount int
}

// InstructionBundle is the ordered instruction set under assembly. Fields are
// private; callers mutate it only through the methods below, which preserve
// the positional invariant: compute-budget, pre, swap (flash-loan wrapped or
// not), post (tip), profit guard.
type InstructionBundle struct {
	computeBudget []solana.Instruction
	pre           []solana.Instruction
	swap          []solana.Instruction
	post          []solana.Instruction
	profitGuard   []solana.Instruction
}

// NewInstructionBundle seeds a bundle with its compute-budget header and the
// raw swap instructions produced by the aggregator.
func NewInstructionBundle(computeBudget, swap []solana.Instruction) *InstructionBundle {
	return &InstructionBundle{
		computeBudget: computeBudget,
		swap:          swap,
	}
}

// ReplaceSwap swaps out the bundle's swap-slot instructions wholesale. Used
// by the flash-loan decorator, whose manager returns a complete
// begin/borrow/.../repay/end sequence wrapping the original swap.
func (b *InstructionBundle) ReplaceSwap(instructions []solana.Instruction) {
	b.swap = instructions
}

// AppendPost appends an instruction to the bundle's post-swap slot (e.g. the
// tip transfer). Post-slot instructions are emitted before the profit guard.
func (b *InstructionBundle) AppendPost(instruction solana.Instruction) {
	b.post = append(b.post, instruction)
}

// SetProfitGuard installs the bundle's profit-guard instruction pair,
// replacing whatever was there (ProfitGuard only ever runs once per pass).
func (b *InstructionBundle) SetProfitGuard(instructions []solana.Instruction) {
	b.profitGuard = instructions
}

// Swap returns the bundle's current swap-slot instructions.
func (b *InstructionBundle) Swap() []solana.Instruction {
	return b.swap
}

// ProfitGuard returns the bundle's profit-guard instruction pair, if any.
func (b *InstructionBundle) ProfitGuard() []solana.Instruction {
	return b.profitGuard
}

// Finalize concatenates every slot in the invariant order: compute-budget,
// pre-decorations, swap, post (tip), profit guard.
func (b *InstructionBundle) Finalize() []solana.Instruction {
	total := len(b.computeBudget) + len(b.pre) + len(b.swap) + len(b.post) + len(b.profitGuard)
	out := make([]solana.Instruction, 0, total)
	out = append(out, b.computeBudget...)
	out = append(out, b.pre...)
	out = append(out, b.swap...)
	out = append(out, b.post...)
	out = append(out, b.profitGuard...)
	return out
}

// AssemblyContext is the scratch state threaded through one decorator chain
// pass. It is scoped to a single assembly call and dropped when the pipeline
// returns; nothing here is retained across passes.
type AssemblyContext struct {
	Signer solana.PublicKey

	FlashloanManager FlashloanManager
	Lighthouse       LighthouseRuntime

	GuardStrategy GuardStrategy

	GuardRequired       uint64
	JitoTipBudget       uint64
	PrioritizationFee   uint64
	ComputeUnitLimit    uint32

	FlashloanMetadata *FlashloanMetadata
	JitoTipPlan       *TipPlan
	BaseMint          *solana.PublicKey

	Opportunity *SwapOpportunity
	Variant     string
}

// AddComputeUnits saturating-adds delta to the context's compute unit limit.
func (c *AssemblyContext) AddComputeUnits(delta uint32) {
	c.ComputeUnitLimit = saturatingAddU32(c.ComputeUnitLimit, delta)
}

// AddGuardRequired saturating-adds delta to the guard-required accumulator.
func (c *AssemblyContext) AddGuardRequired(delta uint64) {
	c.GuardRequired = saturatingAddU64(c.GuardRequired, delta)
}

func saturatingAddU32(a, b uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(sum)
}

func saturatingAddU64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// FlashloanManager is implemented by per-protocol flash-loan strategies (see
// internal/flashloan/marginfi). It is declared here, rather than in its own
// package, to let AssemblyContext hold one without an import cycle.
type FlashloanManager interface {
	Assemble(signer solana.PublicKey, opportunity *SwapOpportunity, variant string, innerSwap []solana.Instruction) (FlashloanOutcome, error)
	ComputeUnitOverhead() uint32
}

// FlashloanOutcome is the result of a flash-loan manager's Assemble call.
type FlashloanOutcome struct {
	Instructions []solana.Instruction
	Metadata     *FlashloanMetadata
}

// LighthouseRuntime is implemented by internal/lighthouse.Runtime. Declared
// here for the same reason as FlashloanManager.
type LighthouseRuntime interface {
	NextMemoryID() uint8
	RequiredAmountForMint(mint solana.PublicKey, guardRequiredLamports uint64) (uint64, error)
	BuildTokenAmountGuard(signer solana.PublicKey, mint solana.PublicKey, memoryID uint8, expectedDelta uint64) ([]solana.Instruction, error)
}
