package types

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SwapOpportunity is a candidate arbitrage surfaced by the strategy layer for
// one tick of one base mint.
type SwapOpportunity struct {
	BaseMint        solana.PublicKey
	InputAmount     decimal.Decimal
	ExpectedProfit  decimal.Decimal
	RouteFingerprint string
}

// SwapInstructionsVariant is the immutable instruction set an aggregator
// client produced for one opportunity.
type SwapInstructionsVariant struct {
	Instructions      []solana.Instruction
	RequiredAccounts  []*solana.AccountMeta
	LookupTables      []solana.PublicKey
	ComputeUnitHint   uint32
}
