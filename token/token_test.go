package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw, err := Encode(ActionRefresh, "btc", 1234567890)
	require.NoError(t, err)
	require.Equal(t, "refresh_BTC_1234567890", raw)

	tok, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, ActionRefresh, tok.Action)
	require.Equal(t, "BTC", tok.Symbol)
	require.Equal(t, int64(1234567890), tok.MarketCap)
}

func TestEncodeRejectsUnsafeInput(t *testing.T) {
	_, err := Encode(ActionRefresh, "", 1)
	require.ErrorIs(t, err, ErrBadSymbol)

	_, err = Encode(ActionRefresh, "BTC_ETH", 1)
	require.ErrorIs(t, err, ErrBadSymbol)

	_, err = Encode("re_fresh", "BTC", 1)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"refresh",
		"refresh_BTC",
		"refresh_BTC_1_extra",
		"refresh__100",
		"_BTC_100",
		"refresh_BTC_notanumber",
		"refresh_BT-C_100",
	}
	for _, raw := range cases {
		_, err := Decode(raw)
		require.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestDecodeNegativeMarketCap(t *testing.T) {
	tok, err := Decode("refresh_DOGE_-1")
	require.NoError(t, err)
	require.Equal(t, int64(-1), tok.MarketCap)
}
