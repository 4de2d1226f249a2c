package decorators

import (
	"fmt"

	"github.com/galileobot/galileo/internal/types"
)

// GuardBudget is the third decorator. It folds the tip and/or
// prioritization-fee budget into guard_required according to the context's
// GuardStrategy. All additions saturate.
type GuardBudget struct{}

// Apply implements assembly.Decorator.
func (GuardBudget) Apply(_ *types.InstructionBundle, ctx *types.AssemblyContext) error {
	switch ctx.GuardStrategy {
	case types.GuardBasePlusTip:
		ctx.AddGuardRequired(ctx.JitoTipBudget)
	case types.GuardBasePlusPrioritizationFee:
		ctx.AddGuardRequired(ctx.PrioritizationFee)
	case types.GuardBasePlusTipAndPrioritizationFee:
		ctx.AddGuardRequired(ctx.JitoTipBudget)
		ctx.AddGuardRequired(ctx.PrioritizationFee)
	default:
		return fmt.Errorf("guard_budget: unknown guard strategy %v", ctx.GuardStrategy)
	}
	return nil
}
