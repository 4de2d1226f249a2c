package iplease

import (
	"net"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// NewBoundHTTPClient builds an *http.Client whose outbound TCP connections
// are sourced from ip, the ClientFactory shape a Pool[*http.Client] needs
// for quote fan-out and the HTTP-based lander adapters (Jito, staked relay).
func NewBoundHTTPClient(ip net.IP, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   timeout,
		LocalAddr: &net.TCPAddr{IP: ip},
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: dialer.DialContext,
		},
	}
}

// NewBoundRPCClient builds an *rpc.Client against endpoint whose underlying
// HTTP transport is bound to ip, the ClientFactory shape a Pool[*rpc.Client]
// needs for the RPC lander.
func NewBoundRPCClient(endpoint string, ip net.IP, timeout time.Duration) *rpc.Client {
	httpClient := NewBoundHTTPClient(ip, timeout)
	return rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	}))
}

// HTTPClientFactory returns a ClientFactory[*http.Client] that builds one
// client bound to each leased IP; the client is not tied to any endpoint.
func HTTPClientFactory(timeout time.Duration) ClientFactory[*http.Client] {
	return func(ip net.IP) (*http.Client, error) {
		return NewBoundHTTPClient(ip, timeout), nil
	}
}

// RPCClientFactory returns a ClientFactory[*rpc.Client] against endpoint, one
// per leased IP.
func RPCClientFactory(endpoint string, timeout time.Duration) ClientFactory[*rpc.Client] {
	return func(ip net.IP) (*rpc.Client, error) {
		return NewBoundRPCClient(endpoint, ip, timeout), nil
	}
}
