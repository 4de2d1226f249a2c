package decorators

import (
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/galileobot/galileo/internal/types"
)

// Tip is the second decorator. When a tip plan is present with a non-zero
// lamport amount, it appends a system-program transfer from the signer to
// the plan's recipient to the bundle's post-instructions slot, which sits
// before the profit guard.
type Tip struct{}

// Apply implements assembly.Decorator.
func (Tip) Apply(bundle *types.InstructionBundle, ctx *types.AssemblyContext) error {
	plan := ctx.JitoTipPlan
	if plan == nil || plan.Lamports == 0 {
		return nil
	}

	transfer := system.NewTransferInstruction(plan.Lamports, ctx.Signer, plan.Recipient).Build()
	bundle.AppendPost(transfer)
	return nil
}
