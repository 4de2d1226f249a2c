package execution

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/assembly"
	"github.com/galileobot/galileo/internal/types"
)

func TestBuildCompilesAssembledInstructionsIntoTransaction(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	builder := NewBuilder(assembly.NewChain(), signer)

	plan := types.ExecutionPlan{
		Opportunity: types.SwapOpportunity{BaseMint: mint, InputAmount: decimal.NewFromInt(1_000_000)},
		Variant: types.SwapInstructionsVariant{
			Instructions: []solana.Instruction{
				solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{0x01}),
			},
			ComputeUnitHint: 200_000,
		},
		BaseMint:         mint,
		ComputeUnitLimit: 200_000,
		PriorityFee:      1_000,
	}

	blockhash := types.BlockhashSnapshot{Blockhash: solana.Hash{0x01}, Slot: 42}

	tx, err := builder.Build(plan, Collaborators{GuardStrategy: types.GuardBasePlusTip}, blockhash)
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, blockhash.Blockhash, tx.Message.RecentBlockhash)
	require.GreaterOrEqual(t, len(tx.Message.Instructions), 3)
}
