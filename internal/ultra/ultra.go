// Package ultra turns an aggregator's Ultra-style swap response (a base64
// unsigned transaction plus optional lookup-table references) into a
// signed, ready-to-submit transaction.
package ultra

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/galileobot/galileo/internal/altcache"
	"github.com/galileobot/galileo/internal/types"
)

// Kind classifies an adapter failure.
type Kind int

const (
	KindDecode Kind = iota
	KindSignerMismatch
	KindSign
	KindResolve
	KindEncode
)

// Error is the adapter's error type.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ultra: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// LookupState reports whether a prepared swap's lookup tables were
// resolved eagerly or left for the caller to resolve.
type LookupState int

const (
	LookupResolved LookupState = iota
	LookupDeferred
)

// PreparedSwap is the adapter's output: a locally signed transaction plus
// whatever lookup-table information the configured resolver produced.
type PreparedSwap struct {
	Transaction  *solana.Transaction
	LookupState  LookupState
	LookupTables []solana.PublicKey
	Resolved     []altcache.Entry
}

// LookupResolver mirrors UltraLookupResolver: Fetch eagerly resolves
// lookup tables via an ALT cache, Deferred leaves the raw pubkeys for the
// caller.
type LookupResolver interface {
	Resolve(ctx context.Context, tables []solana.PublicKey) (resolved []altcache.Entry, deferred bool, err error)
}

// FetchResolver resolves lookup tables eagerly through an ALT cache.
type FetchResolver struct {
	Cache *altcache.Cache
}

// Resolve implements LookupResolver.
func (r FetchResolver) Resolve(ctx context.Context, tables []solana.PublicKey) ([]altcache.Entry, bool, error) {
	entries := make([]altcache.Entry, 0, len(tables))
	for _, table := range tables {
		entry, err := r.Cache.Resolve(ctx, table)
		if err != nil {
			return nil, false, fmt.Errorf("resolving lookup table %s: %w", table, err)
		}
		entries = append(entries, entry)
	}
	return entries, false, nil
}

// DeferredResolver is the integration point named in DESIGN.md's Open
// Question decision: it performs no RPC and returns the raw lookup table
// pubkeys unresolved. Callers (e.g. a multi-leg transaction builder) must
// resolve them before finalizing the transaction.
type DeferredResolver struct{}

// Resolve implements LookupResolver.
func (DeferredResolver) Resolve(_ context.Context, tables []solana.PublicKey) ([]altcache.Entry, bool, error) {
	return nil, true, nil
}

// Adapter decodes, verifies, and signs Ultra-style swap responses.
type Adapter struct {
	expectedSigner solana.PublicKey
	resolver       LookupResolver
}

// NewAdapter builds an Adapter that rejects any decoded transaction whose
// fee payer isn't expectedSigner.
func NewAdapter(expectedSigner solana.PublicKey, resolver LookupResolver) *Adapter {
	return &Adapter{expectedSigner: expectedSigner, resolver: resolver}
}

// Prepare decodes base64Tx, verifies the expected signer, signs with
// signer, and resolves its lookup tables according to the adapter's
// configured resolver.
func (a *Adapter) Prepare(ctx context.Context, base64Tx string, signer solana.PrivateKey) (*PreparedSwap, error) {
	tx, err := solana.TransactionFromBase64(base64Tx)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Err: err}
	}

	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(a.expectedSigner) {
		return nil, &Error{Kind: KindSignerMismatch, Err: fmt.Errorf("decoded transaction's fee payer does not match expected signer %s", a.expectedSigner)}
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(a.expectedSigner) {
			return &signer
		}
		return nil
	}); err != nil {
		return nil, &Error{Kind: KindSign, Err: err}
	}

	var lookupTables []solana.PublicKey
	for _, lookup := range tx.Message.AddressTableLookups {
		lookupTables = append(lookupTables, lookup.AccountKey)
	}

	resolved, deferred, err := a.resolver.Resolve(ctx, lookupTables)
	if err != nil {
		return nil, &Error{Kind: KindResolve, Err: err}
	}

	state := LookupResolved
	if deferred {
		state = LookupDeferred
	}

	return &PreparedSwap{
		Transaction:  tx,
		LookupState:  state,
		LookupTables: lookupTables,
		Resolved:     resolved,
	}, nil
}

// Finalize re-encodes the prepared swap's signed transaction into a
// types.PreparedTransaction, satisfying the base64 round-trip law.
func (p *PreparedSwap) Finalize(blockhash types.BlockhashSnapshot) (types.PreparedTransaction, error) {
	if _, err := p.Transaction.ToBase64(); err != nil {
		return types.PreparedTransaction{}, &Error{Kind: KindEncode, Err: err}
	}
	return types.PreparedTransaction{
		Transaction: p.Transaction,
		Slot:        blockhash.Slot,
		Blockhash:   blockhash.Blockhash,
	}, nil
}
