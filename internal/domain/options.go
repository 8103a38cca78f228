package domain

import (
	"fmt"
	"time"
)

// OptionsKey identifies one cached option chain. A zero Expiry means the nearest expiration.
type OptionsKey struct {
	Symbol string
	Expiry int64
}

func (k OptionsKey) String() string {
	return fmt.Sprintf("%s@%d", k.Symbol, k.Expiry)
}

type OptionContract struct {
	ContractSymbol    string
	Strike            float64
	LastPrice         float64
	Bid               float64
	Ask               float64
	Change            float64
	Volume            int64
	OpenInterest      int64
	ImpliedVolatility float64
	InTheMoney        bool
	Expiration        time.Time
}

type OptionChain struct {
	Key OptionsKey

	ExpirationDates []time.Time
	Strikes         []float64

	Calls []OptionContract
	Puts  []OptionContract

	QueriedAt time.Time
}
