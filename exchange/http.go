package exchange

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Config for the HTTP exchange client
type Config struct {
	BaseURL       string        `json:"base_url"`
	APIKey        string        `json:"api_key"`
	APIPassphrase string        `json:"api_passphrase"`
	PrivateKeyHex string        `json:"private_key_hex"`
	Timeout       time.Duration `json:"timeout"`
	RateLimitRPS  int           `json:"rate_limit_rps"`
}

// DefaultConfig returns client defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		RateLimitRPS: 10,
	}
}

// httpClient implements Client against the exchange REST API. Private
// endpoints are authenticated with an ECDSA signature over the request.
type httpClient struct {
	config     *Config
	privateKey *ecdsa.PrivateKey
	address    string
	http       *http.Client
	limiter    *RateLimiter
	logger     *zap.Logger
}

// NewClient creates an authenticated exchange client
func NewClient(config *Config, logger *zap.Logger) (Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("exchange: base URL is required")
	}
	if config.PrivateKeyHex == "" {
		return nil, fmt.Errorf("exchange: private key is required")
	}

	privateKeyBytes, err := hex.DecodeString(strings.TrimPrefix(config.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("exchange: invalid private key hex: %w", err)
	}
	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("exchange: invalid private key: %w", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	return &httpClient{
		config:     config,
		privateKey: privateKey,
		address:    address,
		http:       &http.Client{Timeout: config.Timeout},
		limiter:    NewRateLimiter(config.RateLimitRPS),
		logger:     logger,
	}, nil
}

func (c *httpClient) GetCandles(ctx context.Context, market, resolution string, limit int) ([]Candle, error) {
	q := url.Values{}
	q.Set("resolution", resolution)
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Candles []Candle `json:"candles"`
	}
	if err := c.get(ctx, "/v3/candles/"+market, q, &resp); err != nil {
		return nil, err
	}
	// API returns newest-first; callers want oldest->newest
	candles := resp.Candles
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

func (c *httpClient) GetOrderbook(ctx context.Context, market string) (*Orderbook, error) {
	var book Orderbook
	if err := c.get(ctx, "/v3/orderbook/"+market, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *httpClient) GetAccount(ctx context.Context) (*Account, error) {
	var resp struct {
		Account Account `json:"account"`
	}
	if err := c.signedRequest(ctx, http.MethodGet, "/v3/accounts", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

func (c *httpClient) GetOpenOrders(ctx context.Context, market string, side OrderSide) ([]Order, error) {
	q := url.Values{}
	q.Set("market", market)
	q.Set("side", string(side))
	q.Set("status", "OPEN")

	var resp struct {
		Orders []Order `json:"orders"`
	}
	if err := c.signedRequest(ctx, http.MethodGet, "/v3/orders", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *httpClient) GetMarketInfo(ctx context.Context, market string) (*MarketInfo, error) {
	q := url.Values{}
	q.Set("market", market)

	var resp struct {
		Markets map[string]MarketInfo `json:"markets"`
	}
	if err := c.get(ctx, "/v3/markets", q, &resp); err != nil {
		return nil, err
	}
	info, ok := resp.Markets[market]
	if !ok {
		return nil, fmt.Errorf("exchange: unknown market %s", market)
	}
	return &info, nil
}

func (c *httpClient) CreateOrder(ctx context.Context, params OrderParams) (string, error) {
	var resp struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	}
	if err := c.signedRequest(ctx, http.MethodPost, "/v3/orders", nil, params, &resp); err != nil {
		return "", err
	}
	c.logger.Debug("order created",
		zap.String("market", params.Market),
		zap.String("side", string(params.Side)),
		zap.String("order_id", resp.Order.ID))
	return resp.Order.ID, nil
}

func (c *httpClient) CancelOrder(ctx context.Context, orderID string) error {
	return c.signedRequest(ctx, http.MethodDelete, "/v3/orders/"+orderID, nil, nil, nil)
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, nil, out)
}

// signedRequest attaches the API key headers and an ECDSA signature over
// timestamp|method|path|body to a private endpoint request.
func (c *httpClient) signedRequest(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("exchange: marshal request body: %w", err)
		}
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature, err := c.sign(timestamp, method, path, bodyBytes)
	if err != nil {
		return fmt.Errorf("exchange: sign request: %w", err)
	}

	headers := map[string]string{
		"MRB-API-KEY":    c.config.APIKey,
		"MRB-PASSPHRASE": c.config.APIPassphrase,
		"MRB-TIMESTAMP":  timestamp,
		"MRB-SIGNATURE":  signature,
		"MRB-ADDRESS":    c.address,
	}
	return c.do(ctx, method, path, query, bodyBytes, headers, out)
}

func (c *httpClient) sign(timestamp, method, path string, body []byte) (string, error) {
	message := timestamp + method + path + string(body)
	hash := crypto.Keccak256Hash([]byte(message))
	signature, err := crypto.Sign(hash.Bytes(), c.privateKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(signature), nil
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body []byte, headers map[string]string, out interface{}) error {
	if !c.limiter.Allow() {
		return fmt.Errorf("exchange: rate limit exceeded")
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(method, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("exchange: decode response: %w", err)
		}
	}
	return nil
}

// apiError maps the two rejection classes callers branch on to sentinels
func (c *httpClient) apiError(method string, status int, body []byte) error {
	text := string(body)
	if status == http.StatusNotFound && method == http.MethodDelete {
		return ErrOrderNotFound
	}
	if status == http.StatusBadRequest && strings.Contains(strings.ToLower(text), "would cross") {
		return ErrWouldPostCross
	}
	return &APIError{Status: status, Body: text}
}
