package decorators

import (
	"fmt"

	"github.com/galileobot/galileo/internal/types"
)

// ProfitGuard is the fourth and final decorator. It only acts when
// guard_required is non-zero, a lighthouse runtime is attached, and a base
// mint is known; otherwise it is a no-op and next_memory_id is never
// advanced.
type ProfitGuard struct{}

// Apply implements assembly.Decorator.
func (ProfitGuard) Apply(bundle *types.InstructionBundle, ctx *types.AssemblyContext) error {
	if ctx.GuardRequired == 0 || ctx.Lighthouse == nil || ctx.BaseMint == nil {
		return nil
	}

	requiredAmount, err := ctx.Lighthouse.RequiredAmountForMint(*ctx.BaseMint, ctx.GuardRequired)
	if err != nil {
		return fmt.Errorf("profit_guard: resolving required amount: %w", err)
	}
	if requiredAmount == 0 {
		return nil
	}

	memoryID := ctx.Lighthouse.NextMemoryID()
	instructions, err := ctx.Lighthouse.BuildTokenAmountGuard(ctx.Signer, *ctx.BaseMint, memoryID, requiredAmount)
	if err != nil {
		return fmt.Errorf("profit_guard: building token amount guard: %w", err)
	}

	bundle.SetProfitGuard(instructions)
	return nil
}
