package categorize

import (
	"context"
	"strings"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// Classifier assigns a market type to an event name.
type Classifier interface {
	Classify(ctx context.Context, eventName string) models.MarketType
}

// Func adapts a plain function into a Classifier.
type Func func(ctx context.Context, eventName string) models.MarketType

func (f Func) Classify(ctx context.Context, eventName string) models.MarketType {
	return f(ctx, eventName)
}

type rule struct {
	marketType models.MarketType
	keywords   []string
}

// Rules are checked in order; the first category with a matching substring wins.
var defaultRules = []rule{
	{models.MarketPolitics, []string{"election", "president", "senate", "house", "republican", "democratic", "midterm"}},
	{models.MarketSports, []string{"nba", "nfl", "super bowl", "championship", "world cup", "warriors", "lakers", "chiefs"}},
	{models.MarketCrypto, []string{"bitcoin", "ethereum", "crypto", "blockchain"}},
	{models.MarketEconomic, []string{"fed", "rate", "recession", "inflation", "unemployment", "s&p", "gold", "dollar"}},
	{models.MarketTech, []string{"ai", "gpt", "openai", "tesla", "apple", "google", "amazon", "spacex", "quantum"}},
}

// KeywordClassifier matches lower-cased substrings against fixed keyword lists.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, eventName string) models.MarketType {
	return Keyword(eventName)
}

// Keyword classifies without a context.
func Keyword(eventName string) models.MarketType {
	lower := strings.ToLower(eventName)
	for _, r := range defaultRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.marketType
			}
		}
	}
	return models.MarketOther
}
