package quote

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RenderCard renders a snapshot as the Markdown price card sent to chats.
func RenderCard(s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s (%s)*\n", s.Name, s.Symbol)
	fmt.Fprintf(&b, "Price: *$%s*\n", formatPrice(s.PriceUSD))
	fmt.Fprintf(&b, "1h: %s  24h: %s  7d: %s\n", formatPct(s.Change1hPct), formatPct(s.Change24hPct), formatPct(s.Change7dPct))
	fmt.Fprintf(&b, "Market cap: $%s\n", groupDigits(strconv.FormatInt(s.MarketCapUSD, 10)))
	if !s.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "Updated: %s UTC", s.LastUpdated.UTC().Format("15:04:05"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatPrice keeps two decimals for regular prices and more precision for
// sub-cent coins so the value does not render as $0.00.
func formatPrice(v float64) string {
	switch {
	case v >= 1:
		s := strconv.FormatFloat(v, 'f', 2, 64)
		if i := strings.IndexByte(s, '.'); i > 0 {
			return groupDigits(s[:i]) + s[i:]
		}
		return groupDigits(s)
	case v >= 0.01:
		return strconv.FormatFloat(v, 'f', 4, 64)
	default:
		return strconv.FormatFloat(v, 'f', 8, 64)
	}
}

// formatPct renders the magnitude only; the arrow already carries the sign.
func formatPct(v float64) string {
	arrow := "▲"
	if v < 0 {
		arrow = "▼"
	}
	return fmt.Sprintf("%s%.2f%%", arrow, math.Abs(v))
}

// groupDigits inserts thousands separators into a decimal integer string.
func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
