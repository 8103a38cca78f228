package strutils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Amund211/quotelight/internal/domain"
)

const MAX_SYMBOL_LENGTH = 24

// Bounds the length of the upstream quote URL
const MAX_SYMBOLS_PER_REQUEST = 200

// Characters allowed in a symbol in addition to A-Z and 0-9
// ^GSPC, BRK-B, EURUSD=X, RDS.A
const SYMBOL_PUNCTUATION = "^-=."

// Trims whitespace and converts all characters to uppercase
func NormalizeSymbol(symbol string) (string, error) {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty symbol", domain.ErrInvalidSymbol)
	}
	if len(trimmed) > MAX_SYMBOL_LENGTH {
		return "", fmt.Errorf("%w: symbol too long. input: '%s'", domain.ErrInvalidSymbol, symbol)
	}

	var normalized strings.Builder
	normalized.Grow(len(trimmed))

	for _, char := range trimmed {
		switch {
		case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z':
			normalized.WriteRune(unicode.ToUpper(char))
		case char >= '0' && char <= '9', strings.ContainsRune(SYMBOL_PUNCTUATION, char):
			normalized.WriteRune(char)
		default:
			return "", fmt.Errorf("%w: invalid character in symbol. input: '%s'", domain.ErrInvalidSymbol, symbol)
		}
	}

	return normalized.String(), nil
}

// Normalizes every symbol, keeping order and duplicates
func NormalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", domain.ErrInvalidSymbol)
	}
	if len(symbols) > MAX_SYMBOLS_PER_REQUEST {
		return nil, fmt.Errorf("%w: too many symbols, got %d, max %d", domain.ErrInvalidArgument, len(symbols), MAX_SYMBOLS_PER_REQUEST)
	}

	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		n, err := NormalizeSymbol(symbol)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}

// Splits a comma separated list of symbols, ignoring empty entries
func SplitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		symbols = append(symbols, part)
	}
	return symbols
}
