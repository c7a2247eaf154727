package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/m3rciful/coinbot/core/logger"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

// fakeGecko serves canned CoinGecko responses keyed by path.
func fakeGecko(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL})
}

func TestLookupPicksHighestMarketCap(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			require.Equal(t, "btc", r.URL.Query().Get("query"))
			_, _ = w.Write([]byte(`{"coins":[
				{"id":"bitcoin","symbol":"btc"},
				{"id":"wrapped-btc","symbol":"btc"},
				{"id":"bitcoin-cash","symbol":"bch"}
			]}`))
		case r.URL.Path == "/coins/markets":
			ids := r.URL.Query().Get("ids")
			require.Contains(t, ids, "bitcoin")
			require.Contains(t, ids, "wrapped-btc")
			require.NotContains(t, ids, "bitcoin-cash")
			require.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
			_, _ = w.Write([]byte(`[
				{"id":"bitcoin","market_cap":1000000},
				{"id":"wrapped-btc","market_cap":500}
			]`))
		case strings.HasPrefix(r.URL.Path, "/coins/"):
			require.Equal(t, "/coins/bitcoin", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"name":"Bitcoin","symbol":"btc",
				"market_data":{
					"current_price":{"usd":64250.5},
					"market_cap":{"usd":1000000},
					"price_change_percentage_1h_in_currency":{"usd":0.5},
					"price_change_percentage_24h_in_currency":{"usd":-2.1},
					"price_change_percentage_7d_in_currency":{"usd":10.0},
					"last_updated":"2025-06-01T12:30:45Z"
				}
			}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	snap, err := client.Lookup(context.Background(), "btc")
	require.NoError(t, err)
	require.Equal(t, "Bitcoin", snap.Name)
	require.Equal(t, "BTC", snap.Symbol)
	require.Equal(t, 64250.5, snap.PriceUSD)
	require.Equal(t, int64(1000000), snap.MarketCapUSD)
	require.Equal(t, -2.1, snap.Change24hPct)
	require.Equal(t, "2025-06-01T12:30:45Z", snap.LastUpdated.Format("2006-01-02T15:04:05Z"))
}

func TestLookupNotFound(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"coins":[{"id":"bitcoin","symbol":"btc"}]}`))
	})

	_, err := client.Lookup(context.Background(), "zzz")
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, IsTransient(err))
}

func TestLookupEmptyMarketsIsNotFound(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"coins":[{"id":"ghost","symbol":"gst"}]}`))
		case "/coins/markets":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	_, err := client.Lookup(context.Background(), "gst")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLookupServerErrorIsTransient(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Lookup(context.Background(), "btc")
	require.Error(t, err)
	require.True(t, IsTransient(err))
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestLookupMissingMarketDataIsTransient(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			_, _ = w.Write([]byte(`{"coins":[{"id":"bitcoin","symbol":"btc"}]}`))
		case r.URL.Path == "/coins/markets":
			_, _ = w.Write([]byte(`[{"id":"bitcoin","market_cap":1000000}]`))
		case strings.HasPrefix(r.URL.Path, "/coins/"):
			_, _ = w.Write([]byte(`{"name":"Bitcoin","symbol":"btc"}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	_, err := client.Lookup(context.Background(), "btc")
	require.Error(t, err)
	require.True(t, IsTransient(err))
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestLookupMissingVsCurrencyIsTransient(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			_, _ = w.Write([]byte(`{"coins":[{"id":"bitcoin","symbol":"btc"}]}`))
		case r.URL.Path == "/coins/markets":
			_, _ = w.Write([]byte(`[{"id":"bitcoin","market_cap":1000000}]`))
		case strings.HasPrefix(r.URL.Path, "/coins/"):
			_, _ = w.Write([]byte(`{
				"name":"Bitcoin","symbol":"btc",
				"market_data":{
					"current_price":{"eur":60000},
					"last_updated":"2025-06-01T12:30:45Z"
				}
			}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	_, err := client.Lookup(context.Background(), "btc")
	require.Error(t, err)
	require.True(t, IsTransient(err))
}

func TestLookupMalformedBodyIsTransient(t *testing.T) {
	client := fakeGecko(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coins": [not json`))
	})

	_, err := client.Lookup(context.Background(), "btc")
	require.Error(t, err)
	require.True(t, IsTransient(err))
}

func TestLookupBlankSymbol(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:0"})
	_, err := client.Lookup(context.Background(), "   ")
	require.ErrorIs(t, err, ErrNotFound)
}
