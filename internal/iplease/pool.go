// Package iplease hands outbound tasks a local-IP-bound client while
// respecting per-IP cooldowns and per-task-kind concurrency limits.
package iplease

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/pkg/config"
)

// LeaseMode selects how Acquire picks among eligible IPs.
type LeaseMode string

const (
	ModeSticky     LeaseMode = "sticky"
	ModeRoundRobin LeaseMode = "round_robin"
	ModeRandom     LeaseMode = "random"
)

// ParseLeaseMode maps the config string onto a LeaseMode, defaulting to
// RoundRobin for an empty value.
func ParseLeaseMode(s string) (LeaseMode, error) {
	switch LeaseMode(s) {
	case "":
		return ModeRoundRobin, nil
	case ModeSticky, ModeRoundRobin, ModeRandom:
		return LeaseMode(s), nil
	default:
		return "", fmt.Errorf("iplease: unknown lease mode %q", s)
	}
}

// ClientFactory builds the local-IP-bound client for an IP. Called at most
// once per IP until the IP is removed from the pool.
type ClientFactory[T any] func(ip net.IP) (T, error)

// ipState tracks one inventory IP's cooldown clock, per-task-kind
// concurrency, and memoized client. Its own mutex is separate from the
// pool's so building a client for one IP never blocks acquire/release on
// another.
type ipState[T any] struct {
	ip net.IP

	mu                   sync.Mutex
	inUse                map[types.TaskKind]int
	cooldownUntil        time.Time
	consecutiveCooldowns int

	clientMu sync.RWMutex
	client   T
	built    bool
}

// Pool is a fixed inventory of local source IPs leased out to outbound
// tasks. Safe for concurrent use.
type Pool[T any] struct {
	factory  ClientFactory[T]
	mode     LeaseMode
	cooldown config.CooldownConfig
	limits   map[types.TaskKind]int

	mu       sync.Mutex
	states   []*ipState[T]
	rrCursor int
	lastUsed map[types.TaskKind]string
}

// NewPool builds a pool over the given inventory. ips must be non-empty.
func NewPool[T any](ips []net.IP, mode LeaseMode, cooldown config.CooldownConfig, limits map[types.TaskKind]int, factory ClientFactory[T]) (*Pool[T], error) {
	if len(ips) == 0 {
		return nil, fmt.Errorf("iplease: pool requires at least one ip")
	}
	states := make([]*ipState[T], len(ips))
	for i, ip := range ips {
		states[i] = &ipState[T]{ip: ip, inUse: make(map[types.TaskKind]int)}
	}
	return &Pool[T]{
		factory:  factory,
		mode:     mode,
		cooldown: cooldown,
		limits:   limits,
		states:   states,
		lastUsed: make(map[types.TaskKind]string),
	}, nil
}

// Acquire returns a lease bound to an eligible IP along with that IP's
// memoized client, or a NoEligibleIp error if every IP is either in
// cooldown or at its task-kind concurrency limit.
func (p *Pool[T]) Acquire(taskKind types.TaskKind) (*types.IpLease, T, error) {
	var zero T

	p.mu.Lock()
	order := p.candidateOrder(taskKind)
	now := time.Now()
	var chosen *ipState[T]
	for _, idx := range order {
		st := p.states[idx]
		st.mu.Lock()
		eligible := now.After(st.cooldownUntil) || now.Equal(st.cooldownUntil)
		if eligible {
			limit, hasLimit := p.limits[taskKind]
			if hasLimit && st.inUse[taskKind] >= limit {
				eligible = false
			}
		}
		if eligible {
			st.inUse[taskKind]++
			st.mu.Unlock()
			chosen = st
			break
		}
		st.mu.Unlock()
	}
	if chosen != nil {
		p.lastUsed[taskKind] = chosen.ip.String()
		if p.mode == ModeRoundRobin {
			p.rrCursor++
		}
	}
	p.mu.Unlock()

	if chosen == nil {
		return nil, zero, NoEligibleIp(taskKind)
	}

	client, err := p.clientFor(chosen)
	if err != nil {
		p.release(chosen, taskKind, false)
		return nil, zero, err
	}

	lease := types.NewIpLease(chosen.ip, taskKind, func(rateLimited bool) {
		p.release(chosen, taskKind, rateLimited)
	})
	return lease, client, nil
}

// candidateOrder returns state indices in acquisition priority order for
// the given task kind. Caller must hold p.mu.
func (p *Pool[T]) candidateOrder(taskKind types.TaskKind) []int {
	n := len(p.states)
	order := make([]int, n)

	switch p.mode {
	case ModeSticky:
		start := 0
		if last, ok := p.lastUsed[taskKind]; ok {
			for i, st := range p.states {
				if st.ip.String() == last {
					start = i
					break
				}
			}
		}
		for i := 0; i < n; i++ {
			order[i] = (start + i) % n
		}
	case ModeRandom:
		for i := range order {
			order[i] = i
		}
		rand.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	default: // ModeRoundRobin
		start := p.rrCursor % n
		for i := 0; i < n; i++ {
			order[i] = (start + i) % n
		}
	}
	return order
}

// release returns the concurrency slot taken by Acquire and, if rateLimited
// is set, starts the IP's cooldown clock.
func (p *Pool[T]) release(st *ipState[T], taskKind types.TaskKind, rateLimited bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.inUse[taskKind] > 0 {
		st.inUse[taskKind]--
	}

	if !rateLimited {
		st.consecutiveCooldowns = 0
		return
	}

	st.cooldownUntil = time.Now().Add(p.cooldown.Duration)
	st.consecutiveCooldowns++
	if p.cooldown.MaxConsecutiveCooldowns > 0 && st.consecutiveCooldowns >= p.cooldown.MaxConsecutiveCooldowns {
		st.clientMu.Lock()
		st.built = false
		var zero T
		st.client = zero
		st.clientMu.Unlock()
	}
}

// clientFor returns the IP's memoized client, building it on first use.
// Concurrent callers for the same IP collapse to a single factory call.
func (p *Pool[T]) clientFor(st *ipState[T]) (T, error) {
	st.clientMu.RLock()
	if st.built {
		c := st.client
		st.clientMu.RUnlock()
		return c, nil
	}
	st.clientMu.RUnlock()

	st.clientMu.Lock()
	defer st.clientMu.Unlock()
	if st.built {
		return st.client, nil
	}

	client, err := p.factory(st.ip)
	if err != nil {
		var zero T
		return zero, ClientPoolErr(st.ip.String(), err)
	}
	st.client = client
	st.built = true
	return client, nil
}

// Remove invalidates the memoized client for ip. The next Acquire that
// selects ip rebuilds it.
func (p *Pool[T]) Remove(ip net.IP) {
	for _, st := range p.states {
		if st.ip.Equal(ip) {
			st.clientMu.Lock()
			st.built = false
			var zero T
			st.client = zero
			st.clientMu.Unlock()
			return
		}
	}
}

// Size returns the number of IPs in the inventory.
func (p *Pool[T]) Size() int {
	return len(p.states)
}
