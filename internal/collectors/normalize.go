package collectors

import (
	"github.com/shopspring/decimal"
)

const pricePlaces = 4

// NormalizePair rescales a yes/no price pair so it sums to one and rounds
// both to four places. It reports false when the pair carries no price.
func NormalizePair(yes, no float64) (float64, float64, bool) {
	if yes < 0 || no < 0 {
		return 0, 0, false
	}
	total := yes + no
	if total <= 0 {
		return 0, 0, false
	}
	y := decimal.NewFromFloat(yes / total).Round(pricePlaces).InexactFloat64()
	n := decimal.NewFromFloat(no / total).Round(pricePlaces).InexactFloat64()
	return y, n, true
}
