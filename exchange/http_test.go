package exchange

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	client, err := NewClient(&Config{
		BaseURL:       server.URL,
		APIKey:        "key",
		APIPassphrase: "phrase",
		PrivateKeyHex: hex.EncodeToString(crypto.FromECDSA(key)),
		Timeout:       2 * time.Second,
		RateLimitRPS:  100,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: "http://localhost"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient(&Config{BaseURL: "http://localhost", PrivateKeyHex: "zz"}, zap.NewNop())
	assert.Error(t, err)
}

func TestGetCandlesReversesToOldestFirst(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/candles/ETH-USD", r.URL.Path)
		assert.Equal(t, "1HOUR", r.URL.Query().Get("resolution"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		// Newest first, as the API serves them
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candles": []map[string]string{
				{"close": "103"},
				{"close": "102"},
				{"close": "101"},
			},
		})
	}))

	candles, err := client.GetCandles(context.Background(), "ETH-USD", "1HOUR", 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.True(t, candles[0].Close.Equal(decimal.NewFromInt(101)))
	assert.True(t, candles[2].Close.Equal(decimal.NewFromInt(103)))
}

func TestGetMarketInfo(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"markets": map[string]interface{}{
				"ETH-USD": map[string]string{
					"market":       "ETH-USD",
					"stepSize":     "0.001",
					"tickSize":     "0.1",
					"minOrderSize": "0.01",
					"indexPrice":   "2000",
				},
			},
		})
	}))

	info, err := client.GetMarketInfo(context.Background(), "ETH-USD")
	require.NoError(t, err)
	assert.True(t, info.StepSize.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, info.IndexPrice.Equal(decimal.NewFromInt(2000)))

	_, err = client.GetMarketInfo(context.Background(), "DOGE-USD")
	assert.Error(t, err)
}

func TestSignedRequestHeaders(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("MRB-API-KEY"))
		assert.Equal(t, "phrase", r.Header.Get("MRB-PASSPHRASE"))
		assert.NotEmpty(t, r.Header.Get("MRB-TIMESTAMP"))
		assert.NotEmpty(t, r.Header.Get("MRB-SIGNATURE"))
		assert.NotEmpty(t, r.Header.Get("MRB-ADDRESS"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"account": map[string]interface{}{"positionId": "42", "equity": "10000"},
		})
	}))

	account, err := client.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", account.PositionID)
	assert.True(t, account.Equity.Equal(decimal.NewFromInt(10000)))
}

func TestCancelOrderNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"msg":"order not found"}]}`, http.StatusNotFound)
	}))

	err := client.CancelOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCreateOrderWouldCross(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"msg":"post-only order would cross the book"}]}`, http.StatusBadRequest)
	}))

	_, err := client.CreateOrder(context.Background(), OrderParams{Market: "ETH-USD", Side: OrderSideBuy})
	assert.ErrorIs(t, err, ErrWouldPostCross)
}

func TestCreateOrderReturnsID(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var params OrderParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "ETH-USD", params.Market)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"order": map[string]string{"id": "oid-7"},
		})
	}))

	id, err := client.CreateOrder(context.Background(), OrderParams{
		Market: "ETH-USD",
		Side:   OrderSideBuy,
		Type:   OrderTypeLimit,
		Size:   decimal.RequireFromString("0.5"),
		Price:  decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	assert.Equal(t, "oid-7", id)
}

func TestAPIErrorSurfaced(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))

	_, err := client.GetOrderbook(context.Background(), "ETH-USD")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(2)
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	time.Sleep(600 * time.Millisecond)
	assert.True(t, rl.Allow())
}
