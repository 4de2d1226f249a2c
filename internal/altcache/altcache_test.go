package altcache

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressesRejectsShortData(t *testing.T) {
	_, err := ParseAddresses(make([]byte, 10))
	require.Error(t, err)
}

func TestParseAddressesRejectsMisalignedRegion(t *testing.T) {
	data := make([]byte, lookupTableMetaSize+10)
	_, err := ParseAddresses(data)
	require.Error(t, err)
}

func TestParseAddressesReturnsAddressesInOrder(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	data := make([]byte, lookupTableMetaSize+64)
	copy(data[lookupTableMetaSize:], a.Bytes())
	copy(data[lookupTableMetaSize+32:], b.Bytes())

	addresses, err := ParseAddresses(data)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, a, addresses[0])
	assert.Equal(t, b, addresses[1])
}

func TestEvictForcesRefetch(t *testing.T) {
	c := NewCache(nil)
	key := solana.NewWallet().PublicKey()
	c.mu.Lock()
	c.entries[key] = Entry{Key: key}
	c.mu.Unlock()

	assert.Equal(t, 1, c.Len())
	c.Evict(key)
	assert.Equal(t, 0, c.Len())
}
