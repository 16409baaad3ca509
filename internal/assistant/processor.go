package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/pkg/logger"
	"market-assist-be/pkg/cache"
	"market-assist-be/pkg/llm"
)

const responseCachePrefix = "resp:"

// ProcessResult carries the reply plus how it was produced.
type ProcessResult struct {
	Reply    string
	Intent   IntentTag
	Cached   bool
	Fallback bool
}

// ResponseProcessor turns a user message into an assistant reply: classify,
// consult the fingerprint cache, otherwise call the generation service under a
// hard timeout, degrading to an intent-selected fallback on any failure.
type ResponseProcessor struct {
	provider   llm.LLMProvider
	cache      cache.Service
	classifier *IntentClassifier
	prompts    *PromptBuilder
	cacheTTL   time.Duration
	genTimeout time.Duration
	logger     logger.ILogger
}

func NewResponseProcessor(
	provider llm.LLMProvider,
	cacheService cache.Service,
	cacheTTL time.Duration,
	genTimeout time.Duration,
	log logger.ILogger,
) *ResponseProcessor {
	return &ResponseProcessor{
		provider:   provider,
		cache:      cacheService,
		classifier: NewIntentClassifier(),
		prompts:    NewPromptBuilder(),
		cacheTTL:   cacheTTL,
		genTimeout: genTimeout,
		logger:     log,
	}
}

// Fingerprint hashes the normalized text together with the user category so
// distinct audiences never share a cached reply.
func Fingerprint(text, category string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Join(strings.Fields(normalized), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + category))
	return responseCachePrefix + hex.EncodeToString(sum[:])
}

// Process never fails for generation-service reasons: timeouts, transport and
// quota errors all degrade to a fallback reply. Cache errors count as misses.
func (p *ResponseProcessor) Process(ctx context.Context, session *entity.ChatSession, text string, history []*entity.ChatMessage) *ProcessResult {
	intent := p.classifier.Classify(text)
	key := Fingerprint(text, session.Category())

	if cached, found, err := p.cache.Get(ctx, key); err != nil {
		p.logger.Warn("Processor", "Response cache lookup failed, treating as miss", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	} else if found {
		return &ProcessResult{Reply: cached, Intent: intent, Cached: true}
	}

	prompt := p.prompts.Build(session, intent, text, history)

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	reply, err := p.provider.Chat(genCtx, prompt)
	if err != nil {
		p.logGenerationFailure(session, err)
		return &ProcessResult{
			Reply:    FallbackReply(intent),
			Intent:   intent,
			Fallback: true,
		}
	}

	// Fallbacks are never written; only real generations earn a cache slot.
	if err := p.cache.Set(ctx, key, reply, p.cacheTTL); err != nil {
		p.logger.Warn("Processor", "Failed to cache generated reply", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	}

	return &ProcessResult{Reply: reply, Intent: intent}
}

func (p *ResponseProcessor) logGenerationFailure(session *entity.ChatSession, err error) {
	details := map[string]interface{}{
		"session_id": session.Id,
		"error":      err.Error(),
	}
	switch err.(type) {
	case *llm.TimeoutError:
		p.logger.Warn("Processor", "Generation timed out, serving fallback", details)
	case *llm.QuotaError:
		p.logger.Error("Processor", "Generation quota exhausted, serving fallback", details)
	default:
		p.logger.Error("Processor", "Generation failed, serving fallback", details)
	}
}
