// Package marginfi implements the only flash-loan manager galileo ships:
// borrow-then-repay within a Marginfi lending account, wrapping the inner
// swap instructions between begin/borrow and repay/end markers.
package marginfi

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/galileobot/galileo/internal/flashloan"
	"github.com/galileobot/galileo/internal/types"
)

var (
	programID        = solana.MustPublicKeyFromBase58("MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA")
	groupID           = solana.MustPublicKeyFromBase58("4qp6Fx6tnZkY5Wropq9wUYgtFxXKwE6viZxFHg3rdAG8")
	tokenProgramID    = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	systemProgramID   = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	associatedTokenID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Fixed 8-byte Anchor instruction discriminators. Bit-exact; do not touch.
var (
	accountInitializeDiscriminator = [8]byte{43, 78, 61, 255, 148, 52, 249, 154}
	closeAccountDiscriminator      = [8]byte{186, 221, 93, 34, 50, 97, 194, 241}
	beginDiscriminator             = [8]byte{14, 131, 33, 220, 81, 186, 180, 107}
	endDiscriminator               = [8]byte{105, 124, 201, 106, 153, 2, 8, 156}
	borrowDiscriminator            = [8]byte{4, 126, 116, 53, 48, 5, 212, 31}
	repayDiscriminator             = [8]byte{79, 209, 172, 177, 222, 51, 173, 151}
)

// Account header layout: 8-byte Anchor tag, then group pubkey, then
// authority pubkey.
const (
	pubkeyBytes       = 32
	groupOffset       = 8
	authorityOffset   = groupOffset + pubkeyBytes
	accountHeaderLen  = authorityOffset + pubkeyBytes
)

// Account is one decoded Marginfi lending account header.
type Account struct {
	Address   solana.PublicKey
	Group     solana.PublicKey
	Authority solana.PublicKey
}

// DecodeAccountHeader parses the group/authority fields out of a raw
// Marginfi account's leading bytes. Returns false if the data is shorter
// than the fixed header.
func DecodeAccountHeader(address solana.PublicKey, data []byte) (Account, bool) {
	if len(data) < accountHeaderLen {
		return Account{}, false
	}
	var group, authority solana.PublicKey
	copy(group[:], data[groupOffset:groupOffset+pubkeyBytes])
	copy(authority[:], data[authorityOffset:authorityOffset+pubkeyBytes])
	return Account{Address: address, Group: group, Authority: authority}, true
}

// MatchesAuthority reports whether this account is owned by authority.
func (a Account) MatchesAuthority(authority solana.PublicKey) bool {
	return a.Authority.Equals(authority)
}

// Registry maps a signer authority to its known Marginfi account. galileo
// does not discover Marginfi accounts on chain at runtime; the registry is
// populated from configuration (see pkg/config MarginfiConfig).
type Registry struct {
	byAuthority map[solana.PublicKey]Account
}

// NewRegistry builds a registry from authority -> account pubkey pairs.
func NewRegistry(pairs map[solana.PublicKey]solana.PublicKey) *Registry {
	byAuthority := make(map[solana.PublicKey]Account, len(pairs))
	for authority, account := range pairs {
		byAuthority[authority] = Account{Address: account, Group: groupID, Authority: authority}
	}
	return &Registry{byAuthority: byAuthority}
}

// FindByAuthority looks up the account registered for authority.
func (r *Registry) FindByAuthority(authority solana.PublicKey) (Account, bool) {
	acc, ok := r.byAuthority[authority]
	return acc, ok
}

// computeUnitOverhead is the fixed compute-unit cost of the Marginfi
// begin/end markers plus the borrow/repay pair, observed from the program's own
// compute budget documentation.
const computeUnitOverhead uint32 = 45_000

// Manager implements types.FlashloanManager for the Marginfi protocol.
type Manager struct {
	registry   *Registry
	rpcClient  *rpc.Client
}

// NewManager builds a Manager backed by registry. rpcClient is stored but
// not called: Assemble derives the borrowed mint's associated-token-account
// locally and makes no RPC request.
func NewManager(registry *Registry, rpcClient *rpc.Client) *Manager {
	return &Manager{registry: registry, rpcClient: rpcClient}
}

// ComputeUnitOverhead implements types.FlashloanManager.
func (m *Manager) ComputeUnitOverhead() uint32 {
	return computeUnitOverhead
}

// Assemble implements types.FlashloanManager. It locates the signer's
// Marginfi account, computes the borrowed-mint ATA, and emits begin -> borrow
// -> innerSwap -> repay -> end, wrapping the inner swap in strict nesting.
// Borrowed amount always exactly equals repaid amount.
func (m *Manager) Assemble(signer solana.PublicKey, opportunity *types.SwapOpportunity, variant string, innerSwap []solana.Instruction) (types.FlashloanOutcome, error) {
	if m.registry == nil {
		return types.FlashloanOutcome{}, flashloan.InvalidConfig("no marginfi account registry configured")
	}
	if opportunity == nil {
		return types.FlashloanOutcome{}, flashloan.InvalidConfig("no opportunity supplied to flashloan manager")
	}
	if variant == "" {
		return types.FlashloanOutcome{}, flashloan.InvalidConfig("no flashloan variant supplied")
	}

	account, ok := m.registry.FindByAuthority(signer)
	if !ok {
		return types.FlashloanOutcome{}, flashloan.UnsupportedAsset(fmt.Sprintf("no marginfi account registered for authority %s", signer))
	}

	borrowedMint := opportunity.BaseMint
	if !opportunity.InputAmount.IsInteger() || opportunity.InputAmount.Sign() < 0 {
		return types.FlashloanOutcome{}, flashloan.InvalidConfigDetail("opportunity input amount must be a non-negative integer number of base units")
	}
	borrowAmount := opportunity.InputAmount.BigInt().Uint64()

	ata, _, err := computeAssociatedTokenAddress(signer, borrowedMint)
	if err != nil {
		return types.FlashloanOutcome{}, flashloan.Rpc(err)
	}

	instructions := make([]solana.Instruction, 0, 4+len(innerSwap))
	instructions = append(instructions, m.beginInstruction(account, signer))
	instructions = append(instructions, m.borrowInstruction(account, signer, ata, borrowAmount))
	instructions = append(instructions, innerSwap...)
	instructions = append(instructions, m.repayInstruction(account, signer, ata, borrowAmount))
	instructions = append(instructions, m.endInstruction(account, signer))

	metadata := &types.FlashloanMetadata{
		Protocol:              "marginfi",
		BorrowedMint:          borrowedMint,
		BorrowAmount:          borrowAmount,
		InnerInstructionCount: len(innerSwap),
	}

	return types.FlashloanOutcome{Instructions: instructions, Metadata: metadata}, nil
}

func (m *Manager) beginInstruction(account Account, signer solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(account.Address, true, false),
		solana.NewAccountMeta(account.Group, false, false),
		solana.NewAccountMeta(signer, true, true),
	}, beginDiscriminator[:])
}

func (m *Manager) endInstruction(account Account, signer solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(account.Address, true, false),
		solana.NewAccountMeta(account.Group, false, false),
		solana.NewAccountMeta(signer, true, true),
	}, endDiscriminator[:])
}

func (m *Manager) borrowInstruction(account Account, signer, ata solana.PublicKey, amount uint64) solana.Instruction {
	data := append(append([]byte{}, borrowDiscriminator[:]...), encodeU64(amount)...)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(account.Address, true, false),
		solana.NewAccountMeta(account.Group, false, false),
		solana.NewAccountMeta(signer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(tokenProgramID, false, false),
	}, data)
}

func (m *Manager) repayInstruction(account Account, signer, ata solana.PublicKey, amount uint64) solana.Instruction {
	data := append(append([]byte{}, repayDiscriminator[:]...), encodeU64(amount)...)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(account.Address, true, false),
		solana.NewAccountMeta(account.Group, false, false),
		solana.NewAccountMeta(signer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(tokenProgramID, false, false),
	}, data)
}

func encodeU64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// computeAssociatedTokenAddress derives the owner's ATA for mint against the
// SPL token program, matching the original implementation's seed order
// exactly: (owner, token_program, mint) under the associated-token program.
func computeAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgramID.Bytes(), mint.Bytes()},
		associatedTokenID,
	)
}
