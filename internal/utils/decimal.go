package utils

import (
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgtype"
)

func NumericToFloat64(value pgtype.Numeric) float64 {
	if !value.Valid {
		return 0
	}
	f, err := value.Float64Value()
	if err == nil {
		return f.Float64
	}
	// fallback to string parse
	text, err := value.MarshalJSON()
	if err != nil {
		return 0
	}
	var out float64
	if _, err := fmt.Sscan(string(text), &out); err != nil {
		return 0
	}
	return out
}

// ToCents converts a currency amount to integer cents, rounding half away
// from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

func RoundMoney(amount float64) float64 {
	return FromCents(ToCents(amount))
}

func FormatMoney(amount float64, currency string) string {
	if currency == "" {
		currency = "$"
	}
	return fmt.Sprintf("%s%.2f", currency, amount)
}
