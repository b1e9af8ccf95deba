package arb

import (
	"github.com/shopspring/decimal"
)

// Direction names which venue carries the "yes" leg of a hedge.
type Direction string

const (
	DirectionNone       Direction = ""
	DirectionBuyYesANoB Direction = "BUY_YES_A_BUY_NO_B"
	DirectionBuyYesBNoA Direction = "BUY_YES_B_BUY_NO_A"
)

// Slot identifies one of the two venues passed to the solver.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

const (
	DefaultNotional = 100.0

	currencyPlaces = 2
	percentPlaces  = 4

	epsilon = 1e-9
)

// Leg is one wager of the hedge.
type Leg struct {
	Slot    Slot    `json:"slot"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Stake   float64 `json:"stake"`
}

// Allocation is the stake split for one profitable direction. Monetary
// fields are rounded to cents and percentages to four places.
type Allocation struct {
	Direction           Direction `json:"direction"`
	Yes                 Leg       `json:"yes"`
	No                  Leg       `json:"no"`
	Notional            float64   `json:"notional"`
	Payout              float64   `json:"payout"`
	Profit              float64   `json:"profit"`
	ProfitPct           float64   `json:"profit_pct"`
	CombinedProbability float64   `json:"combined_probability"`

	rawProfitPct float64
}

// Result holds every profitable direction and the one selected.
type Result struct {
	Directions map[Direction]*Allocation
	Best       *Allocation
}

// Evaluate sizes both hedge directions for a pair of quotes. Direction one
// buys yes on A and no on B, direction two buys yes on B and no on A.
func Evaluate(yesA, noB, yesB, noA, notional float64) Result {
	if notional <= 0 {
		notional = DefaultNotional
	}
	res := Result{Directions: make(map[Direction]*Allocation)}

	d1 := size(DirectionBuyYesANoB, SlotA, yesA, SlotB, noB, notional)
	d2 := size(DirectionBuyYesBNoA, SlotB, yesB, SlotA, noA, notional)
	if d1 != nil {
		res.Directions[d1.Direction] = d1
	}
	if d2 != nil {
		res.Directions[d2.Direction] = d2
	}

	// d1 must be strictly better; an exact tie goes to d2.
	switch {
	case d1 != nil && (d2 == nil || d1.rawProfitPct > d2.rawProfitPct):
		res.Best = d1
	case d2 != nil:
		res.Best = d2
	}
	return res
}

// Solve returns the better of the two directions, or false when buying both
// legs never costs less than the guaranteed payout.
func Solve(yesA, noB, yesB, noA, notional float64) (*Allocation, bool) {
	res := Evaluate(yesA, noB, yesB, noA, notional)
	if res.Best == nil {
		return nil, false
	}
	return res.Best, true
}

// size solves stake_yes/price_yes == stake_no/price_no with
// stake_yes+stake_no == notional, which pays notional/combined either way.
func size(dir Direction, yesSlot Slot, yesPrice float64, noSlot Slot, noPrice float64, notional float64) *Allocation {
	if yesPrice <= epsilon || noPrice <= epsilon {
		return nil
	}
	combined := yesPrice + noPrice
	if combined >= 1.0 {
		return nil
	}

	stakeYes := notional * yesPrice / combined
	stakeNo := notional * noPrice / combined
	payout := notional / combined
	profit := payout - notional
	profitPct := profit / notional * 100

	return &Allocation{
		Direction: dir,
		Yes: Leg{
			Slot:    yesSlot,
			Outcome: "yes",
			Price:   yesPrice,
			Stake:   roundCurrency(stakeYes),
		},
		No: Leg{
			Slot:    noSlot,
			Outcome: "no",
			Price:   noPrice,
			Stake:   roundCurrency(stakeNo),
		},
		Notional:            notional,
		Payout:              roundCurrency(payout),
		Profit:              roundCurrency(profit),
		ProfitPct:           roundPercent(profitPct),
		CombinedProbability: roundPercent(combined),
		rawProfitPct:        profitPct,
	}
}

func roundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(currencyPlaces).InexactFloat64()
}

func roundPercent(v float64) float64 {
	return decimal.NewFromFloat(v).Round(percentPlaces).InexactFloat64()
}
