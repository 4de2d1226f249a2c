// Package lighthouse builds the memory-write + account-delta-assert
// instruction pair that guarantees a token account's balance grew by at
// least a minimum delta across a transaction, and allocates the ephemeral
// memory-account ids those instructions key off.
package lighthouse

import (
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the Lighthouse mainnet program address.
var ProgramID = solana.PublicKeyFromBytes([]byte{
	4, 223, 173, 121, 98, 255, 177, 221, 146, 93, 10, 159, 181, 230, 208, 12, 230, 25, 91, 168,
	187, 58, 145, 253, 7, 239, 152, 96, 197, 233, 123, 184,
})

// TokenAccountAmountOffset and TokenAccountAmountSize locate the `amount`
// field within an SPL token account's raw bytes. Bit-exact; do not touch.
const (
	TokenAccountAmountOffset uint16 = 64
	TokenAccountAmountSize   uint16 = 8
)

// LogLevel mirrors the Lighthouse program's log-verbosity enum. Only
// failures are logged in human-readable form in the core's usage.
type LogLevel uint8

const (
	LogSilent                LogLevel = 0
	LogPlaintextMessage       LogLevel = 1
	LogEncodedMessage         LogLevel = 2
	LogEncodedNoop            LogLevel = 3
	LogFailedPlaintextMessage LogLevel = 4
	LogFailedEncodedMessage   LogLevel = 5
	LogFailedEncodedNoop      LogLevel = 6
)

// IntegerOperator mirrors the Lighthouse program's integer comparison enum.
type IntegerOperator uint8

const (
	OpEqual              IntegerOperator = 0
	OpNotEqual           IntegerOperator = 1
	OpGreaterThan        IntegerOperator = 2
	OpLessThan           IntegerOperator = 3
	OpGreaterThanOrEqual IntegerOperator = 4
	OpLessThanOrEqual    IntegerOperator = 5
	OpContains           IntegerOperator = 6
	OpDoesNotContain     IntegerOperator = 7
)

// instruction opcodes selecting which Lighthouse instruction a data payload
// decodes to. The program itself is append-only on opcode assignment; these
// two are the only instructions this core emits.
const (
	opcodeMemoryWrite   byte = 7
	opcodeAccountDelta  byte = 12
)

// TokenAmountGuard is the memory-write + account-delta-assert instruction
// pair produced by BuildTokenAmountGuard.
type TokenAmountGuard struct {
	MemoryWrite Instruction
	AssertDelta Instruction
	MemoryBump  uint8
}

// Instruction is an alias kept local so callers don't need the solana-go
// import just to hold a guard pair.
type Instruction = solana.Instruction

// memoryAddress derives the Lighthouse memory PDA for (payer, memoryID).
// Seed layout ("memory" || payer || memory_id) is bit-exact; do not touch.
func memoryAddress(payer solana.PublicKey, memoryID uint8) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte("memory"), payer.Bytes(), {memoryID}},
		ProgramID,
	)
}

// BuildTokenAmountGuard builds the instruction pair guaranteeing
// targetAccount's balance grows by at least minDelta relative to its
// pre-swap snapshot. Log level is fixed to FailedPlaintextMessage: only
// guard failures produce human-readable logs.
func BuildTokenAmountGuard(payer, targetAccount solana.PublicKey, memoryID uint8, minDelta uint64) (TokenAmountGuard, error) {
	memory, bump, err := memoryAddress(payer, memoryID)
	if err != nil {
		return TokenAmountGuard{}, fmt.Errorf("lighthouse: deriving memory account: %w", err)
	}

	memoryWrite := buildMemoryWriteInstruction(memoryWriteParams{
		payer:             payer,
		memory:            memory,
		memoryID:          memoryID,
		memoryBump:        bump,
		sourceAccount:     targetAccount,
		writeOffset:       0,
		accountDataOffset: TokenAccountAmountOffset,
		accountDataLength: TokenAccountAmountSize,
	})

	assertDelta := buildAccountDeltaInstruction(accountDeltaParams{
		memory:            memory,
		targetAccount:     targetAccount,
		logLevel:          LogFailedPlaintextMessage,
		snapshotOffset:    0,
		accountDataOffset: uint64(TokenAccountAmountOffset),
		expectedDelta:     int64(minDelta),
		operator:          OpGreaterThanOrEqual,
	})

	return TokenAmountGuard{MemoryWrite: memoryWrite, AssertDelta: assertDelta, MemoryBump: bump}, nil
}

type memoryWriteParams struct {
	payer             solana.PublicKey
	memory            solana.PublicKey
	memoryID          uint8
	memoryBump        uint8
	sourceAccount     solana.PublicKey
	writeOffset       uint16
	accountDataOffset uint16
	accountDataLength uint16
}

// buildMemoryWriteInstruction snapshots accountDataLength bytes of
// sourceAccount, starting at accountDataOffset, into the memory PDA at
// writeOffset.
func buildMemoryWriteInstruction(p memoryWriteParams) solana.Instruction {
	data := make([]byte, 0, 1+1+1+2+2+2)
	data = append(data, opcodeMemoryWrite)
	data = append(data, p.memoryID, p.memoryBump)
	data = appendU16LE(data, p.writeOffset)
	data = appendU16LE(data, p.accountDataOffset)
	data = appendU16LE(data, p.accountDataLength)

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(p.payer, true, true),
		solana.NewAccountMeta(p.memory, true, false),
		solana.NewAccountMeta(p.sourceAccount, false, false),
	}, data)
}

type accountDeltaParams struct {
	memory            solana.PublicKey
	targetAccount     solana.PublicKey
	logLevel          LogLevel
	snapshotOffset    uint16
	accountDataOffset uint64
	expectedDelta     int64
	operator          IntegerOperator
}

// buildAccountDeltaInstruction reads the same field back out of
// targetAccount and asserts it grew by at least expectedDelta relative to
// the memory snapshot, using operator as the comparison.
func buildAccountDeltaInstruction(p accountDeltaParams) solana.Instruction {
	data := make([]byte, 0, 1+1+2+8+8+1)
	data = append(data, opcodeAccountDelta)
	data = append(data, byte(p.logLevel))
	data = appendU16LE(data, p.snapshotOffset)
	data = appendU64LE(data, p.accountDataOffset)
	data = appendI64LE(data, p.expectedDelta)
	data = append(data, byte(p.operator))

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(p.memory, false, false),
		solana.NewAccountMeta(p.targetAccount, false, false),
	}, data)
}

func appendU16LE(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendU64LE(b []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

func appendI64LE(b []byte, v int64) []byte {
	return appendU64LE(b, uint64(v))
}

// Runtime allocates monotonically increasing memory-account ids and
// resolves a base mint's guard-required lamports
// into a mint-denominated minimum delta. It implements
// types.LighthouseRuntime.
type Runtime struct {
	nextID     uint32
	rateSource MintRateSource
}

// MintRateSource converts a lamports-denominated guard amount into a
// mint-denominated minimum delta, accounting for the mint's decimals and a
// SOL/mint exchange rate. Out of scope for this package's own tests: the
// oracle/rate lookup is an external collaborator.
type MintRateSource interface {
	LamportsToMintAmount(mint solana.PublicKey, lamports uint64) (uint64, error)
}

// NewRuntime builds a Runtime. Its memory-id counter never resets and is not
// tied to one assembly pass: a Runtime shared across passes (internal/cli
// builds one and shares it) keeps counting across every pass, wrapping at
// 256 ids.
func NewRuntime(rateSource MintRateSource) *Runtime {
	return &Runtime{rateSource: rateSource}
}

// NextMemoryID returns the next 8-bit memory-account id. The Lighthouse
// program does not clear memory between inner calls, so uniqueness within
// one transaction is the runtime's responsibility.
func (r *Runtime) NextMemoryID() uint8 {
	id := atomic.AddUint32(&r.nextID, 1) - 1
	return uint8(id)
}

// RequiredAmountForMint resolves guardRequiredLamports into a
// mint-denominated minimum delta via the configured rate source.
func (r *Runtime) RequiredAmountForMint(mint solana.PublicKey, guardRequiredLamports uint64) (uint64, error) {
	if r.rateSource == nil {
		return 0, nil
	}
	return r.rateSource.LamportsToMintAmount(mint, guardRequiredLamports)
}

// BuildTokenAmountGuard implements types.LighthouseRuntime by delegating to
// the package-level builder and flattening the pair into a two-instruction
// slice in (memory_write, assert_delta) order.
func (r *Runtime) BuildTokenAmountGuard(signer, mint solana.PublicKey, memoryID uint8, expectedDelta uint64) ([]solana.Instruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(signer, mint)
	if err != nil {
		return nil, fmt.Errorf("lighthouse: deriving base mint ATA: %w", err)
	}

	guard, err := BuildTokenAmountGuard(signer, ata, memoryID, expectedDelta)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{guard.MemoryWrite, guard.AssertDelta}, nil
}
