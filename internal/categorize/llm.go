package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetulpatel/arbhunter/internal/cache"
	"github.com/hetulpatel/arbhunter/internal/llm"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/matcher"
	"github.com/hetulpatel/arbhunter/internal/models"
)

const systemPrompt = `You label prediction market events.
Answer with exactly one word from this list: Politics, Sports, Crypto, Economic, Tech, Other.`

// LLMClassifier asks a chat model for the category and falls back to the
// keyword rules when the call fails or the answer is not a known category.
type LLMClassifier struct {
	client   llm.Completer
	cache    cache.CategoryCache
	fallback Classifier
}

// NewLLMClassifier wires a classifier. A nil cache uses an in-process map
// and a nil fallback uses KeywordClassifier.
func NewLLMClassifier(client llm.Completer, c cache.CategoryCache, fallback Classifier) (*LLMClassifier, error) {
	if client == nil {
		return nil, fmt.Errorf("categorize: llm client is required")
	}
	if c == nil {
		c = cache.NewMemoryCategoryCache()
	}
	if fallback == nil {
		fallback = KeywordClassifier{}
	}
	return &LLMClassifier{client: client, cache: c, fallback: fallback}, nil
}

func (l *LLMClassifier) Classify(ctx context.Context, eventName string) models.MarketType {
	key := matcher.NormalizeEventName(eventName)
	if mt, ok, err := l.cache.Get(ctx, key); err != nil {
		logging.Debugf("[categorize] cache get: %v", err)
	} else if ok {
		return mt
	}

	answer, err := l.client.Complete(ctx, systemPrompt, fmt.Sprintf("Event: %s\nCategory:", strings.TrimSpace(eventName)))
	if err != nil {
		logging.Errorf("[categorize] llm failed for %q: %v", eventName, err)
		return l.fallback.Classify(ctx, eventName)
	}
	mt, ok := parseAnswer(answer)
	if !ok {
		logging.Debugf("[categorize] unusable answer %q for %q", answer, eventName)
		return l.fallback.Classify(ctx, eventName)
	}
	if err := l.cache.Set(ctx, key, mt); err != nil {
		logging.Debugf("[categorize] cache set: %v", err)
	}
	return mt
}

// parseAnswer accepts the first word of the reply, ignoring punctuation.
func parseAnswer(answer string) (models.MarketType, bool) {
	fields := strings.Fields(answer)
	if len(fields) == 0 {
		return "", false
	}
	return models.ParseMarketType(strings.Trim(fields[0], ".,:;!\"'`*"))
}
