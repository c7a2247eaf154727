package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderCard(t *testing.T) {
	snap := Snapshot{
		Name:         "Bitcoin",
		Symbol:       "BTC",
		PriceUSD:     64250.5,
		Change1hPct:  0.5,
		Change24hPct: -2.1,
		Change7dPct:  10,
		MarketCapUSD: 1264000000000,
		LastUpdated:  time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
	}

	card := RenderCard(snap)
	require.Contains(t, card, "*Bitcoin (BTC)*")
	require.Contains(t, card, "$64,250.50")
	require.Contains(t, card, "▲0.50%")
	require.Contains(t, card, "▼2.10%")
	require.Contains(t, card, "$1,264,000,000,000")
	require.Contains(t, card, "Updated: 12:30:45 UTC")
}

func TestRenderCardOmitsZeroTimestamp(t *testing.T) {
	card := RenderCard(Snapshot{Name: "Ghost", Symbol: "GST"})
	require.NotContains(t, card, "Updated:")
}

func TestFormatPctSignFoldsIntoArrow(t *testing.T) {
	require.Equal(t, "▲0.50%", formatPct(0.5))
	require.Equal(t, "▼2.10%", formatPct(-2.1))
	require.Equal(t, "▲0.00%", formatPct(0))
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "64,250.50", formatPrice(64250.5))
	require.Equal(t, "1.00", formatPrice(1))
	require.Equal(t, "0.0450", formatPrice(0.045))
	require.Equal(t, "0.00001234", formatPrice(0.00001234))
}

func TestGroupDigits(t *testing.T) {
	require.Equal(t, "0", groupDigits("0"))
	require.Equal(t, "999", groupDigits("999"))
	require.Equal(t, "1,000", groupDigits("1000"))
	require.Equal(t, "1,234,567", groupDigits("1234567"))
	require.Equal(t, "-1,234", groupDigits("-1234"))
}
