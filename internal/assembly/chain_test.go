package assembly

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/types"
)

type stubFlashloanManager struct {
	instructions []solana.Instruction
	metadata     *types.FlashloanMetadata
	overhead     uint32
	err          error
}

func (s *stubFlashloanManager) Assemble(signer solana.PublicKey, opportunity *types.SwapOpportunity, variant string, innerSwap []solana.Instruction) (types.FlashloanOutcome, error) {
	if s.err != nil {
		return types.FlashloanOutcome{}, s.err
	}
	return types.FlashloanOutcome{Instructions: s.instructions, Metadata: s.metadata}, nil
}

func (s *stubFlashloanManager) ComputeUnitOverhead() uint32 {
	return s.overhead
}

type stubLighthouseRuntime struct {
	nextID         uint8
	requiredAmount uint64
	requiredErr    error
	calls          int
}

func (s *stubLighthouseRuntime) NextMemoryID() uint8 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *stubLighthouseRuntime) RequiredAmountForMint(mint solana.PublicKey, guardRequiredLamports uint64) (uint64, error) {
	s.calls++
	return s.requiredAmount, s.requiredErr
}

func (s *stubLighthouseRuntime) BuildTokenAmountGuard(signer, mint solana.PublicKey, memoryID uint8, expectedDelta uint64) ([]solana.Instruction, error) {
	return []solana.Instruction{
		solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{0xAA}),
		solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{0xBB}),
	}, nil
}

func rawSwap() []solana.Instruction {
	return []solana.Instruction{
		solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{0x01}),
	}
}

func TestHappyPathTipAndGuard(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	baseMint := solana.NewWallet().PublicKey()

	bundle := types.NewInstructionBundle(nil, rawSwap())
	lighthouse := &stubLighthouseRuntime{requiredAmount: 42}
	ctx := &types.AssemblyContext{
		Signer:        signer,
		Lighthouse:    lighthouse,
		GuardStrategy: types.GuardBasePlusTip,
		GuardRequired: 1_000_000,
		JitoTipBudget: 10_000,
		JitoTipPlan:   &types.TipPlan{Lamports: 10_000, Recipient: recipient},
		BaseMint:      &baseMint,
	}

	chain := NewChain()
	require.NoError(t, chain.Apply(bundle, ctx))

	assert.Equal(t, uint64(1_010_000), ctx.GuardRequired)
	require.Len(t, bundle.ProfitGuard(), 2)

	final := bundle.Finalize()
	// raw swap, tip transfer, memory_write, assert_delta
	require.Len(t, final, 4)
	assert.Equal(t, solana.SystemProgramID, final[1].ProgramID())
	tipData, err := final[1].Data()
	require.NoError(t, err)
	assert.NotEmpty(t, tipData)
}

func TestFlashloanPathReplacesBundleAndAddsOverhead(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	baseMint := solana.NewWallet().PublicKey()
	wrapped := make([]solana.Instruction, 5)
	for i := range wrapped {
		wrapped[i] = solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, []byte{byte(i)})
	}

	bundle := types.NewInstructionBundle(nil, rawSwap())
	ctx := &types.AssemblyContext{
		Signer:           signer,
		FlashloanManager: &stubFlashloanManager{instructions: wrapped, metadata: &types.FlashloanMetadata{Protocol: "marginfi"}, overhead: 50_000},
		Opportunity:      &types.SwapOpportunity{BaseMint: baseMint},
		Variant:          "default",
		ComputeUnitLimit: 200_000,
		GuardStrategy:    types.GuardBasePlusTip,
	}

	chain := NewChain()
	require.NoError(t, chain.Apply(bundle, ctx))

	assert.Equal(t, uint32(250_000), ctx.ComputeUnitLimit)
	assert.Equal(t, wrapped, bundle.Swap())
	assert.NotNil(t, ctx.FlashloanMetadata)
}

func TestNoOpProfitGuardWhenGuardRequiredIsZero(t *testing.T) {
	lighthouse := &stubLighthouseRuntime{requiredAmount: 999}
	baseMint := solana.NewWallet().PublicKey()
	bundle := types.NewInstructionBundle(nil, rawSwap())
	ctx := &types.AssemblyContext{
		Signer:        solana.NewWallet().PublicKey(),
		Lighthouse:    lighthouse,
		BaseMint:      &baseMint,
		GuardStrategy: types.GuardBasePlusTip,
	}

	require.NoError(t, NewChain().Apply(bundle, ctx))

	assert.Empty(t, bundle.ProfitGuard())
	assert.Zero(t, lighthouse.calls)
	assert.Equal(t, uint8(0), lighthouse.nextID)
}

func TestZeroTipInsertsNoTransfer(t *testing.T) {
	bundle := types.NewInstructionBundle(nil, rawSwap())
	ctx := &types.AssemblyContext{
		Signer:        solana.NewWallet().PublicKey(),
		JitoTipPlan:   &types.TipPlan{Lamports: 0, Recipient: solana.NewWallet().PublicKey()},
		GuardStrategy: types.GuardBasePlusTip,
	}

	require.NoError(t, NewChain().Apply(bundle, ctx))
	assert.Equal(t, rawSwap(), bundle.Swap())
	assert.Len(t, bundle.Finalize(), 1)
}

func TestUnknownGuardStrategyIsAnError(t *testing.T) {
	bundle := types.NewInstructionBundle(nil, rawSwap())
	ctx := &types.AssemblyContext{
		Signer:        solana.NewWallet().PublicKey(),
		GuardStrategy: types.GuardStrategy(99),
	}

	err := NewChain().Apply(bundle, ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown guard strategy")
}
