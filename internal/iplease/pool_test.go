package iplease

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/pkg/config"
)

func twoIPs() []net.IP {
	return []net.IP{net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2")}
}

func noopFactory(ip net.IP) (string, error) {
	return ip.String(), nil
}

func TestAcquireReleaseRoundTrips(t *testing.T) {
	pool, err := NewPool(twoIPs(), ModeRoundRobin, config.CooldownConfig{Duration: 50 * time.Millisecond}, nil, noopFactory)
	require.NoError(t, err)

	lease, client, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	assert.Equal(t, lease.IP.String(), client)
	lease.Release(false)
}

func TestIpCooldownExpiresAndBecomesAcquirableAgain(t *testing.T) {
	// Scenario 5: IP A cooldown until T+100ms; at T a task of the same kind
	// acquires B, not A. After T+101ms, A is acquirable again.
	pool, err := NewPool(twoIPs(), ModeRoundRobin, config.CooldownConfig{Duration: 100 * time.Millisecond}, nil, noopFactory)
	require.NoError(t, err)

	leaseA, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", leaseA.IP.String())
	leaseA.Release(true) // rate-limited: starts A's cooldown clock

	leaseB, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", leaseB.IP.String())
	leaseB.Release(false)

	time.Sleep(110 * time.Millisecond)

	leaseA2, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", leaseA2.IP.String())
	leaseA2.Release(false)
}

func TestConcurrentAcquireSameIpMakesOneFactoryCall(t *testing.T) {
	// Property 6: for any two concurrent IpLeasePool.acquire for the same
	// IP, at most one factory call is made.
	var calls int32
	factory := func(ip net.IP) (string, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(5 * time.Millisecond)
		return ip.String(), nil
	}

	pool, err := NewPool([]net.IP{net.ParseIP("10.0.0.1")}, ModeRoundRobin, config.CooldownConfig{},
		map[types.TaskKind]int{types.TaskKindQuote: 20}, factory)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	leases := make([]*types.IpLease, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			lease, _, err := pool.Acquire(types.TaskKindQuote)
			require.NoError(t, err)
			leases[i] = lease
		}(i)
	}
	wg.Wait()

	for _, lease := range leases {
		lease.Release(false)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNoEligibleIpWhenAllAtConcurrencyLimit(t *testing.T) {
	pool, err := NewPool([]net.IP{net.ParseIP("10.0.0.1")}, ModeRoundRobin, config.CooldownConfig{},
		map[types.TaskKind]int{types.TaskKindQuote: 1}, noopFactory)
	require.NoError(t, err)

	lease, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)

	_, _, err = pool.Acquire(types.TaskKindQuote)
	require.Error(t, err)
	var ipErr *Error
	require.ErrorAs(t, err, &ipErr)
	assert.Equal(t, KindNoEligibleIp, ipErr.Kind)

	lease.Release(false)

	_, _, err = pool.Acquire(types.TaskKindQuote)
	assert.NoError(t, err)
}

func TestStickyPrefersLastUsedIpForTaskKind(t *testing.T) {
	pool, err := NewPool(twoIPs(), ModeSticky, config.CooldownConfig{}, nil, noopFactory)
	require.NoError(t, err)

	lease1, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	used := lease1.IP.String()
	lease1.Release(false)

	lease2, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	assert.Equal(t, used, lease2.IP.String())
	lease2.Release(false)
}

func TestRemoveInvalidatesMemoizedClient(t *testing.T) {
	var calls int32
	factory := func(ip net.IP) (string, error) {
		atomic.AddInt32(&calls, 1)
		return ip.String(), nil
	}
	pool, err := NewPool([]net.IP{net.ParseIP("10.0.0.1")}, ModeRoundRobin, config.CooldownConfig{}, nil, factory)
	require.NoError(t, err)

	lease, _, err := pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	lease.Release(false)

	pool.Remove(net.ParseIP("10.0.0.1"))

	_, _, err = pool.Acquire(types.TaskKindQuote)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
