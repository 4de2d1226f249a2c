package decorators

import (
	"github.com/galileobot/galileo/internal/types"
)

// Flashloan is the first decorator in the chain. When a flash-loan manager,
// an opportunity, and a variant are all present on the context, it replaces
// the bundle's swap instructions wholesale with the manager's wrapped
// begin/borrow/.../repay/end sequence.
type Flashloan struct{}

// Apply implements assembly.Decorator.
func (Flashloan) Apply(bundle *types.InstructionBundle, ctx *types.AssemblyContext) error {
	if ctx.FlashloanManager == nil || ctx.Opportunity == nil || ctx.Variant == "" {
		return nil
	}

	outcome, err := ctx.FlashloanManager.Assemble(ctx.Signer, ctx.Opportunity, ctx.Variant, bundle.Swap())
	if err != nil {
		return err
	}

	if outcome.Metadata != nil {
		ctx.FlashloanMetadata = outcome.Metadata
		ctx.AddComputeUnits(ctx.FlashloanManager.ComputeUnitOverhead())
	}

	bundle.ReplaceSwap(outcome.Instructions)
	return nil
}
