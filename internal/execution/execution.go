// Package execution turns a strategy-produced ExecutionPlan into a signed,
// blockhash-anchored PreparedTransaction by running it through the
// instruction-assembly decorator chain and compiling the result.
package execution

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/galileobot/galileo/internal/assembly"
	"github.com/galileobot/galileo/internal/types"
)

var computeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const (
	setComputeUnitLimitTag byte = 2
	setComputeUnitPriceTag byte = 3
)

// setComputeUnitLimit builds the ComputeBudget program's SetComputeUnitLimit
// instruction for a raw unit count.
func setComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = setComputeUnitLimitTag
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(computeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// setComputeUnitPrice builds the ComputeBudget program's SetComputeUnitPrice
// instruction for a microlamports-per-unit price.
func setComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = setComputeUnitPriceTag
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solana.NewInstruction(computeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// Builder compiles ExecutionPlans through a fixed assembly chain into
// PreparedTransactions. One Builder is shared across every tick; it holds no
// per-plan state.
type Builder struct {
	chain  *assembly.Chain
	signer solana.PublicKey
}

// NewBuilder returns a Builder that signs as signer using chain to assemble
// instructions.
func NewBuilder(chain *assembly.Chain, signer solana.PublicKey) *Builder {
	return &Builder{chain: chain, signer: signer}
}

// Collaborators bundles the per-pass, strategy-supplied pieces an
// AssemblyContext needs beyond what's in the ExecutionPlan itself.
type Collaborators struct {
	FlashloanManager types.FlashloanManager
	Lighthouse       types.LighthouseRuntime
	GuardStrategy    types.GuardStrategy
	TipPlan          *types.TipPlan
	Variant          string
}

// Build runs plan through the decorator chain and compiles the finalized
// instruction list into a transaction anchored to blockhash. The caller
// signs the result (the signer identity here is only the fee payer of
// record, not a private key the builder holds).
func (b *Builder) Build(plan types.ExecutionPlan, collab Collaborators, blockhash types.BlockhashSnapshot) (*solana.Transaction, error) {
	ctx := &types.AssemblyContext{
		Signer:            b.signer,
		FlashloanManager:  collab.FlashloanManager,
		Lighthouse:        collab.Lighthouse,
		GuardStrategy:     collab.GuardStrategy,
		GuardRequired:     plan.BaseGuard,
		JitoTipBudget:     plan.BaseTip,
		PrioritizationFee: plan.PriorityFee,
		ComputeUnitLimit:  plan.ComputeUnitLimit,
		JitoTipPlan:       collab.TipPlan,
		BaseMint:          &plan.BaseMint,
		Opportunity:       &plan.Opportunity,
		Variant:           collab.Variant,
	}

	computeBudgetInstructions := []solana.Instruction{setComputeUnitLimit(plan.ComputeUnitLimit)}
	if plan.PriorityFee > 0 {
		computeBudgetInstructions = append(computeBudgetInstructions, setComputeUnitPrice(plan.PriorityFee))
	}

	bundle := types.NewInstructionBundle(computeBudgetInstructions, plan.Variant.Instructions)
	if err := b.chain.Apply(bundle, ctx); err != nil {
		return nil, fmt.Errorf("execution: assembling plan for mint %s: %w", plan.BaseMint, err)
	}

	// Variants carrying address-lookup-table references are resolved and
	// compiled into a versioned transaction by internal/ultra instead; a
	// variant reaching this builder is assumed to need none (the direct,
	// non-ALT route case).
	tx, err := solana.NewTransaction(bundle.Finalize(), blockhash.Blockhash, solana.TransactionPayer(b.signer))
	if err != nil {
		return nil, fmt.Errorf("execution: compiling transaction for mint %s: %w", plan.BaseMint, err)
	}
	return tx, nil
}
