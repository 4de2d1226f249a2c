package blockhash

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/pkg/logger"
)

func fakeBlockhashServer(t *testing.T, blockhash string, slot, lastValid uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","result":{"context":{"slot":%d},"value":{"blockhash":"%s","lastValidBlockHeight":%d}},"id":1}`,
			slot, blockhash, lastValid)
	}))
}

func TestCurrentErrorsBeforeFirstFetch(t *testing.T) {
	client := rpc.New("http://127.0.0.1:1")
	src := NewSource(client, logger.New("test"))

	_, err := src.Current()
	assert.ErrorIs(t, err, ErrNoSnapshotYet)
}

func TestRunPublishesCoherentSnapshot(t *testing.T) {
	blockhash := "EDNd1ycsydWYwVWWRB2MmNrZj7KyHqh5dPdEPgyX3U6f"
	server := fakeBlockhashServer(t, blockhash, 100, 200)
	defer server.Close()

	client := rpc.New(server.URL)
	src := NewSource(client, logger.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		_, err := src.Current()
		return err == nil
	}, time.Second, 5*time.Millisecond)

	snapshot, err := src.Current()
	require.NoError(t, err)
	assert.EqualValues(t, 100, snapshot.Slot)
	assert.EqualValues(t, 200, snapshot.LastValidBlockHeight)

	cancel()
	<-done
}
