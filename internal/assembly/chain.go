// Package assembly runs the fixed-order decorator chain that turns a raw
// swap instruction variant into a budget-annotated InstructionBundle:
// flashloan, tip, guard-budget, profit-guard, in that order, never
// reordered.
package assembly

import (
	"fmt"

	"github.com/galileobot/galileo/internal/assembly/decorators"
	"github.com/galileobot/galileo/internal/types"
)

// Decorator mutates a bundle and its assembly context. Implementations must
// be idempotent over a no-op context: absent optional collaborators yield no
// change and no error.
type Decorator interface {
	Apply(bundle *types.InstructionBundle, ctx *types.AssemblyContext) error
}

// Chain is the fixed, ordered decorator list. Construct it with NewChain;
// do not build one by hand, since the order is the invariant.
type Chain struct {
	steps []Decorator
}

// NewChain returns the standard chain: Flashloan, Tip, GuardBudget,
// ProfitGuard.
func NewChain() *Chain {
	return &Chain{steps: []Decorator{
		decorators.Flashloan{},
		decorators.Tip{},
		decorators.GuardBudget{},
		decorators.ProfitGuard{},
	}}
}

// Apply runs every decorator in order. Any failure aborts assembly; the
// bundle and context reflect only the decorators that ran to completion
// before the failing one (no partial bundle from the failing step itself,
// since decorators record before they mutate).
func (c *Chain) Apply(bundle *types.InstructionBundle, ctx *types.AssemblyContext) error {
	for _, step := range c.steps {
		if err := step.Apply(bundle, ctx); err != nil {
			return fmt.Errorf("assembly: %T: %w", step, err)
		}
	}
	return nil
}
