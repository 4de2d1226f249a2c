package marginfi

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/flashloan"
	"github.com/galileobot/galileo/internal/types"
)

func testSigner(t *testing.T) solana.PublicKey {
	t.Helper()
	return solana.NewWallet().PublicKey()
}

func TestAssembleWrapsInnerSwapWithEqualBorrowAndRepay(t *testing.T) {
	signer := testSigner(t)
	account := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	registry := NewRegistry(map[solana.PublicKey]solana.PublicKey{signer: account})
	manager := NewManager(registry, nil)

	inner := []solana.Instruction{
		solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{1}),
	}
	opportunity := &types.SwapOpportunity{BaseMint: mint, InputAmount: decimal.NewFromInt(1_000_000)}

	outcome, err := manager.Assemble(signer, opportunity, "default", inner)
	require.NoError(t, err)
	require.NotNil(t, outcome.Metadata)

	require.Equal(t, 5, len(outcome.Instructions))

	beginData, err := outcome.Instructions[0].Data()
	require.NoError(t, err)
	assert.Equal(t, beginDiscriminator[:], beginData[:8])

	borrowData, err := outcome.Instructions[1].Data()
	require.NoError(t, err)
	assert.Equal(t, borrowDiscriminator[:], borrowData[:8])

	assert.Equal(t, inner[0], outcome.Instructions[2])

	repayData, err := outcome.Instructions[3].Data()
	require.NoError(t, err)
	assert.Equal(t, repayDiscriminator[:], repayData[:8])

	endData, err := outcome.Instructions[4].Data()
	require.NoError(t, err)
	assert.Equal(t, endDiscriminator[:], endData[:8])

	assert.Equal(t, borrowData[8:], repayData[8:], "borrow amount must equal repay amount exactly")

	assert.Equal(t, uint64(1_000_000), outcome.Metadata.BorrowAmount)
	assert.Equal(t, "marginfi", outcome.Metadata.Protocol)
	assert.Equal(t, 1, outcome.Metadata.InnerInstructionCount)
}

func TestAssembleUnknownAuthorityIsUnsupportedAsset(t *testing.T) {
	registry := NewRegistry(map[solana.PublicKey]solana.PublicKey{})
	manager := NewManager(registry, nil)

	opportunity := &types.SwapOpportunity{BaseMint: solana.NewWallet().PublicKey(), InputAmount: decimal.NewFromInt(1)}
	_, err := manager.Assemble(testSigner(t), opportunity, "default", nil)

	require.Error(t, err)
	var flErr *flashloan.Error
	require.ErrorAs(t, err, &flErr)
	assert.Equal(t, flashloan.KindUnsupportedAsset, flErr.Kind)
}

func TestComputeUnitOverheadIsFixed(t *testing.T) {
	manager := NewManager(NewRegistry(nil), nil)
	assert.Equal(t, computeUnitOverhead, manager.ComputeUnitOverhead())
}
