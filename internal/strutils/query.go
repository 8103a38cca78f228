package strutils

import (
	"fmt"
	"strings"

	"github.com/Amund211/quotelight/internal/domain"
)

const MAX_QUERY_LENGTH = 100

const MAX_SCREENER_ID_LENGTH = 64

// Trims, lowercases and collapses runs of whitespace so equivalent queries share a cache slot
func NormalizeQuery(query string) (string, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty query", domain.ErrInvalidArgument)
	}
	if len(normalized) > MAX_QUERY_LENGTH {
		return "", fmt.Errorf("%w: query too long", domain.ErrInvalidArgument)
	}
	return normalized, nil
}

// Predefined screener ids are lowercase snake case, e.g. day_gainers
func NormalizeScreenerID(screenerID string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(screenerID))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty screener id", domain.ErrInvalidArgument)
	}
	if len(normalized) > MAX_SCREENER_ID_LENGTH {
		return "", fmt.Errorf("%w: screener id too long", domain.ErrInvalidArgument)
	}
	for _, char := range normalized {
		if (char < 'a' || char > 'z') && (char < '0' || char > '9') && char != '_' {
			return "", fmt.Errorf("%w: invalid character in screener id. input: '%s'", domain.ErrInvalidArgument, screenerID)
		}
	}
	return normalized, nil
}
