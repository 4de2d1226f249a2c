package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// loadSignerFromPath reads a Solana CLI-format keypair file (a JSON array
// of the 64-byte secret key) into a signer. Key custody is out of scope of
// galileo's core (spec.md §1: "it is given a signer identity"); this is the
// CLI entrypoint's own minimal loader, not a core component.
func loadSignerFromPath(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, Usagef("no wallet keypair_path configured")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: loading wallet keypair from %s: %w", path, err)
	}
	return key, nil
}
