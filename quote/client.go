// Package quote resolves a ticker symbol into a market snapshot via the
// CoinGecko HTTP API.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/coinbot/core/logger"
	"log/slog"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const defaultTimeout = 10 * time.Second

// ErrNotFound means no listed coin matches the requested symbol.
var ErrNotFound = errors.New("quote: symbol not found")

// TransientError marks upstream failures worth retrying later: network
// errors, 5xx responses, or bodies that do not parse.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "quote: upstream failure: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is an upstream failure rather than a miss.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Snapshot is the market state of one coin at lookup time.
type Snapshot struct {
	Name         string
	Symbol       string
	PriceUSD     float64
	Change1hPct  float64
	Change24hPct float64
	Change7dPct  float64
	MarketCapUSD int64
	LastUpdated  time.Time
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	VsCurrency string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client looks up coins on CoinGecko. Lookups are bounded by the client
// timeout and are never retried; a refresh button is the retry mechanism.
type Client struct {
	baseURL    string
	vsCurrency string
	http       *http.Client
}

// NewClient builds a Client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	vs := strings.ToLower(strings.TrimSpace(opts.VsCurrency))
	if vs == "" {
		vs = "usd"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, vsCurrency: vs, http: httpClient}
}

type searchResponse struct {
	Coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
	} `json:"coins"`
}

type marketEntry struct {
	ID        string  `json:"id"`
	MarketCap float64 `json:"market_cap"`
}

type coinDetail struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	MarketData struct {
		CurrentPrice      map[string]float64 `json:"current_price"`
		MarketCap         map[string]float64 `json:"market_cap"`
		PriceChangePct1h  map[string]float64 `json:"price_change_percentage_1h_in_currency"`
		PriceChangePct24h map[string]float64 `json:"price_change_percentage_24h_in_currency"`
		PriceChangePct7d  map[string]float64 `json:"price_change_percentage_7d_in_currency"`
		LastUpdated       time.Time          `json:"last_updated"`
	} `json:"market_data"`
}

// Lookup resolves a symbol to the snapshot of the highest-capitalized coin
// carrying it. Symbols are shared between coins on CoinGecko, so the search
// results are re-ranked by market cap before one is picked.
func (c *Client) Lookup(ctx context.Context, symbol string) (Snapshot, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Snapshot{}, ErrNotFound
	}
	start := time.Now()

	ids, err := c.searchSymbol(ctx, symbol)
	if err != nil {
		return Snapshot{}, err
	}
	if len(ids) == 0 {
		logger.Quote.LogAttrs(ctx, slog.LevelInfo, "lookup.miss",
			slog.String("symbol", strings.ToUpper(symbol)),
		)
		return Snapshot{}, ErrNotFound
	}

	coinID, err := c.topByMarketCap(ctx, ids)
	if err != nil {
		return Snapshot{}, err
	}
	if coinID == "" {
		return Snapshot{}, ErrNotFound
	}

	snap, err := c.fetchDetail(ctx, coinID)
	if err != nil {
		return Snapshot{}, err
	}

	logger.Quote.LogAttrs(ctx, slog.LevelInfo, "lookup.done",
		slog.String("symbol", snap.Symbol),
		slog.String("coin_id", coinID),
		slog.Int64("market_cap", snap.MarketCapUSD),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return snap, nil
}

// searchSymbol returns the ids of all coins whose symbol matches exactly,
// case-insensitive.
func (c *Client) searchSymbol(ctx context.Context, symbol string) ([]string, error) {
	var res searchResponse
	q := url.Values{"query": {symbol}}
	if err := c.getJSON(ctx, "/search", q, &res); err != nil {
		return nil, err
	}

	var ids []string
	for _, coin := range res.Coins {
		if strings.EqualFold(coin.Symbol, symbol) {
			ids = append(ids, coin.ID)
		}
	}
	return ids, nil
}

// topByMarketCap ranks candidate ids by market cap and returns the leader.
func (c *Client) topByMarketCap(ctx context.Context, ids []string) (string, error) {
	var entries []marketEntry
	q := url.Values{
		"vs_currency": {c.vsCurrency},
		"ids":         {strings.Join(ids, ",")},
		"order":       {"market_cap_desc"},
	}
	if err := c.getJSON(ctx, "/coins/markets", q, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].ID, nil
}

func (c *Client) fetchDetail(ctx context.Context, coinID string) (Snapshot, error) {
	var detail coinDetail
	q := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
	}
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(coinID), q, &detail); err != nil {
		return Snapshot{}, err
	}

	md := detail.MarketData
	price, ok := md.CurrentPrice[c.vsCurrency]
	if !ok || md.LastUpdated.IsZero() {
		return Snapshot{}, &TransientError{Err: fmt.Errorf("/coins/%s: market data missing", coinID)}
	}
	return Snapshot{
		Name:         detail.Name,
		Symbol:       strings.ToUpper(detail.Symbol),
		PriceUSD:     price,
		Change1hPct:  md.PriceChangePct1h[c.vsCurrency],
		Change24hPct: md.PriceChangePct24h[c.vsCurrency],
		Change7dPct:  md.PriceChangePct7d[c.vsCurrency],
		MarketCapUSD: int64(md.MarketCap[c.vsCurrency]),
		LastUpdated:  md.LastUpdated,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("quote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("%s: status %s", path, resp.Status)
		logger.Quote.LogAttrs(ctx, slog.LevelWarn, "lookup.upstream_error",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return &TransientError{Err: err}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Err: fmt.Errorf("%s: decode: %w", path, err)}
	}
	return nil
}
