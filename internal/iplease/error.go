package iplease

import (
	"fmt"

	"github.com/galileobot/galileo/internal/types"
)

// Kind classifies an iplease failure the way internal/flashloan.Error does.
type Kind int

const (
	KindInterfaceDiscovery Kind = iota
	KindNoEligibleIp
	KindInvalidManualIp
	KindClientPool
)

// Error is the iplease package's error taxonomy. Every exported failure path
// returns one of these so callers can switch on Kind with errors.As.
type Error struct {
	Kind   Kind
	IP     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNoEligibleIp:
		return fmt.Sprintf("iplease: no eligible ip: %s", e.Detail)
	case KindInvalidManualIp:
		return fmt.Sprintf("iplease: invalid manual ip %q: %s", e.IP, e.Detail)
	case KindClientPool:
		return fmt.Sprintf("iplease: client pool: %s: %v", e.IP, e.Err)
	default:
		return fmt.Sprintf("iplease: interface discovery: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NoEligibleIp reports that acquire found no IP free of cooldown and under
// its task-kind concurrency limit.
func NoEligibleIp(taskKind types.TaskKind) *Error {
	return &Error{Kind: KindNoEligibleIp, Detail: fmt.Sprintf("task kind %s", taskKind)}
}

// InvalidManualIp reports a malformed entry in the static IP inventory.
func InvalidManualIp(ip, reason string) *Error {
	return &Error{Kind: KindInvalidManualIp, IP: ip, Detail: reason}
}

// ClientPoolErr wraps a client-factory failure for a given IP.
func ClientPoolErr(ip string, err error) *Error {
	return &Error{Kind: KindClientPool, IP: ip, Err: err}
}

// InterfaceDiscoveryErr wraps a failure resolving the inventory source
// itself (e.g. an unreadable environment variable).
func InterfaceDiscoveryErr(err error) *Error {
	return &Error{Kind: KindInterfaceDiscovery, Err: err}
}
