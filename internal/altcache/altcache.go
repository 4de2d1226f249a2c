// Package altcache resolves address-lookup-table pubkeys to their current
// account content, deduplicating concurrent misses for the same key to a
// single RPC fetch.
package altcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/singleflight"
)

// lookupTableMetaSize is the byte offset at which an address-lookup-table
// account's address list begins, per the address-lookup-table program's
// account layout (fixed header: type index, deactivation slot, last
// extended slot + index, authority option, padding).
const lookupTableMetaSize = 56

// Entry is a resolved lookup table: the table's own pubkey plus the
// addresses it contains, in on-chain order (index 0 is lookup index 0).
type Entry struct {
	Key       solana.PublicKey
	Addresses []solana.PublicKey
}

// Cache resolves ALT pubkeys via RPC, caching results with no time-based
// TTL; entries only leave the cache via explicit Evict. Safe for concurrent
// use.
type Cache struct {
	client *rpc.Client
	group  singleflight.Group

	mu      sync.RWMutex
	entries map[solana.PublicKey]Entry
}

// NewCache builds a cache backed by client.
func NewCache(client *rpc.Client) *Cache {
	return &Cache{
		client:  client,
		entries: make(map[solana.PublicKey]Entry),
	}
}

// Resolve returns the cached entry for key, fetching it via RPC on a miss.
// Concurrent misses for the same key collapse to a single RPC call.
func (c *Cache) Resolve(ctx context.Context, key solana.PublicKey) (Entry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry, nil
	}

	result, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		c.mu.RLock()
		if entry, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		fetched, err := c.fetch(ctx, key)
		if err != nil {
			return Entry{}, err
		}

		c.mu.Lock()
		c.entries[key] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return result.(Entry), nil
}

// Evict removes key from the cache. The next Resolve for key refetches it.
func (c *Cache) Evict(key solana.PublicKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) fetch(ctx context.Context, key solana.PublicKey) (Entry, error) {
	info, err := c.client.GetAccountInfo(ctx, key)
	if err != nil {
		return Entry{}, fmt.Errorf("altcache: fetching lookup table %s: %w", key, err)
	}
	if info == nil || info.Value == nil {
		return Entry{}, fmt.Errorf("altcache: lookup table %s not found", key)
	}

	addresses, err := ParseAddresses(info.Value.Data.GetBinary())
	if err != nil {
		return Entry{}, fmt.Errorf("altcache: parsing lookup table %s: %w", key, err)
	}
	return Entry{Key: key, Addresses: addresses}, nil
}

// ParseAddresses extracts the address list from a raw address-lookup-table
// account's data.
func ParseAddresses(data []byte) ([]solana.PublicKey, error) {
	if len(data) < lookupTableMetaSize {
		return nil, fmt.Errorf("altcache: lookup table data too short: %d bytes", len(data))
	}
	rest := data[lookupTableMetaSize:]
	if len(rest)%32 != 0 {
		return nil, fmt.Errorf("altcache: lookup table address region misaligned: %d bytes", len(rest))
	}

	count := len(rest) / 32
	addresses := make([]solana.PublicKey, count)
	for i := 0; i < count; i++ {
		addresses[i] = solana.PublicKeyFromBytes(rest[i*32 : (i+1)*32])
	}
	return addresses, nil
}
