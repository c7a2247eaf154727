// Package token encodes the payload carried by refresh buttons. A token is a
// single string travelling through Telegram callback data and back, so it has
// to survive round-trips untouched.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates token fields. Symbols must never contain it.
const Delimiter = "_"

// ActionRefresh requests a fresh quote for the embedded symbol.
const ActionRefresh = "refresh"

var (
	// ErrMalformed is returned when a token does not split into exactly
	// action, symbol and market cap.
	ErrMalformed = errors.New("token: malformed")
	// ErrBadSymbol is returned when a symbol cannot be embedded safely.
	ErrBadSymbol = errors.New("token: bad symbol")
)

// Token is the decoded payload of a refresh button.
// MarketCap is a snapshot taken when the button was created; it is carried
// along for display but never drives the refresh lookup.
type Token struct {
	Action    string
	Symbol    string
	MarketCap int64
}

// Encode builds the wire form "action_SYMBOL_marketcap".
func Encode(action, symbol string, marketCap int64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !validSymbol(symbol) {
		return "", fmt.Errorf("%w: %q", ErrBadSymbol, symbol)
	}
	if action == "" || strings.Contains(action, Delimiter) {
		return "", fmt.Errorf("%w: action %q", ErrMalformed, action)
	}
	return action + Delimiter + symbol + Delimiter + strconv.FormatInt(marketCap, 10), nil
}

// Decode parses the wire form back into a Token. Anything that does not split
// into exactly three fields, or whose market cap is not an integer, is
// rejected as malformed.
func Decode(raw string) (Token, error) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) != 3 {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	action, symbol := parts[0], parts[1]
	if action == "" || !validSymbol(symbol) {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	marketCap, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return Token{Action: action, Symbol: symbol, MarketCap: marketCap}, nil
}

func validSymbol(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
