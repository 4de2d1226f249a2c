// Package flashloan defines the manager contract shared by every per-protocol
// flash-loan strategy. See internal/flashloan/marginfi for the only
// implementation galileo ships.
package flashloan

import "fmt"

// Error is the flash-loan manager error taxonomy from spec.md §4.3 / §7:
// config errors are startup-time and never retried, Rpc errors are
// transient and bubble to the lander fallback.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Kind enumerates the FlashloanError variants.
type Kind int

const (
	// KindInvalidConfig mirrors InvalidConfig(&'static str): a fixed,
	// known configuration problem.
	KindInvalidConfig Kind = iota
	// KindInvalidConfigDetail mirrors InvalidConfigDetail(String): a
	// dynamically composed configuration problem.
	KindInvalidConfigDetail
	// KindUnsupportedAsset mirrors UnsupportedAsset(String).
	KindUnsupportedAsset
	// KindRpc mirrors Rpc(source): a wrapped transport error.
	KindRpc
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidConfig:
		return fmt.Sprintf("flashloan: invalid config: %s", e.Detail)
	case KindInvalidConfigDetail:
		return fmt.Sprintf("flashloan: invalid config: %s", e.Detail)
	case KindUnsupportedAsset:
		return fmt.Sprintf("flashloan: unsupported asset: %s", e.Detail)
	case KindRpc:
		return fmt.Sprintf("flashloan: rpc request failed: %v", e.Err)
	default:
		return fmt.Sprintf("flashloan: unknown error: %s", e.Detail)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidConfig builds a KindInvalidConfig error.
func InvalidConfig(msg string) error {
	return &Error{Kind: KindInvalidConfig, Detail: msg}
}

// InvalidConfigDetail builds a KindInvalidConfigDetail error.
func InvalidConfigDetail(msg string) error {
	return &Error{Kind: KindInvalidConfigDetail, Detail: msg}
}

// UnsupportedAsset builds a KindUnsupportedAsset error.
func UnsupportedAsset(msg string) error {
	return &Error{Kind: KindUnsupportedAsset, Detail: msg}
}

// Rpc wraps a transport error as KindRpc.
func Rpc(err error) error {
	return &Error{Kind: KindRpc, Err: err}
}
