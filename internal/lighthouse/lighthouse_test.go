package lighthouse

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextMemoryIDIsMonotonicAndUniquePerPass(t *testing.T) {
	runtime := NewRuntime(nil)
	seen := make(map[uint8]bool)
	for i := 0; i < 10; i++ {
		id := runtime.NextMemoryID()
		assert.False(t, seen[id], "memory id %d reused within one pass", id)
		seen[id] = true
		assert.Equal(t, uint8(i), id)
	}
}

func TestRequiredAmountForMintNoRateSourceIsNoOp(t *testing.T) {
	runtime := NewRuntime(nil)
	amount, err := runtime.RequiredAmountForMint(solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestBuildTokenAmountGuardEncodesOffsetsBitExactly(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	target := solana.NewWallet().PublicKey()

	guard, err := BuildTokenAmountGuard(payer, target, 3, 1_010_000)
	require.NoError(t, err)

	writeData, err := guard.MemoryWrite.Data()
	require.NoError(t, err)
	// opcode, memory_id, memory_bump, write_offset(2), account_data_offset(2), account_data_length(2)
	require.Len(t, writeData, 9)
	assert.Equal(t, byte(3), writeData[1])
	gotOffset := uint16(writeData[5]) | uint16(writeData[6])<<8
	gotLength := uint16(writeData[7]) | uint16(writeData[8])<<8
	assert.Equal(t, TokenAccountAmountOffset, gotOffset)
	assert.Equal(t, TokenAccountAmountSize, gotLength)

	deltaData, err := guard.AssertDelta.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(OpGreaterThanOrEqual), deltaData[len(deltaData)-1])
}

func TestMemorySeedIsBitExact(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	memory, bump, err := memoryAddress(payer, 7)
	require.NoError(t, err)

	expected, expectedBump, err := solana.FindProgramAddress([][]byte{[]byte("memory"), payer.Bytes(), {7}}, ProgramID)
	require.NoError(t, err)

	assert.Equal(t, expected, memory)
	assert.Equal(t, expectedBump, bump)
}
