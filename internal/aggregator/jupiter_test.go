package aggregator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galileobot/galileo/internal/ultra"
	"github.com/galileobot/galileo/pkg/config"
	"github.com/galileobot/galileo/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(config.LoggingConfig{Level: "error", Format: "json", Output: "stdout"})
}

func unsignedSwapTxBase64(t *testing.T, feePayer solana.PublicKey) string {
	t.Helper()
	transfer := system.NewTransferInstruction(1, feePayer, solana.NewWallet().PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{transfer}, solana.Hash{}, solana.TransactionPayer(feePayer))
	require.NoError(t, err)
	encoded, err := tx.ToBase64()
	require.NoError(t, err)
	return encoded
}

func TestGetQuoteParsesRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		_ = json.NewEncoder(w).Encode(quoteResponse{
			InputMint:  "So11111111111111111111111111111111111111112",
			InAmount:   "1000000000",
			OutputMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			OutAmount:  "5000000",
		})
	}))
	defer server.Close()

	client := NewClient(testLogger(), nil)
	client.baseURL = server.URL

	quote, err := client.GetQuote(context.Background(), "So11111111111111111111111111111111111111112", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", decimal.NewFromInt(1), 50)
	require.NoError(t, err)
	assert.True(t, quote.InAmount.Equal(decimal.NewFromInt(1000000000)))
	assert.True(t, quote.OutAmount.Equal(decimal.NewFromInt(5000000)))
}

func TestGetSwapVariantPreparesThroughUltraAdapter(t *testing.T) {
	wallet := solana.NewWallet()
	swapTx := unsignedSwapTxBase64(t, wallet.PublicKey())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/swap":
			_ = json.NewEncoder(w).Encode(swapTransactionResponse{SwapTransaction: swapTx, LastValidBlockHeight: 100})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	adapter := ultra.NewAdapter(wallet.PublicKey(), ultra.DeferredResolver{})
	client := NewClient(testLogger(), adapter)
	client.baseURL = server.URL

	quote := &Quote{raw: quoteResponse{InputMint: "mintA", OutputMint: "mintB"}}
	prepared, err := client.GetSwapVariant(context.Background(), quote, wallet.PublicKey(), wallet.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, ultra.LookupDeferred, prepared.LookupState)
}
