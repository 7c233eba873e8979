package intelligence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"waypoint/models"
	"waypoint/services/cache"

	"go.uber.org/zap"
)

const responseCachePrefix = "ai:resp:"

// CachedRequester memoizes successful non-null model results keyed by the
// full prompt and generation settings. Cache failures never fail a request.
type CachedRequester struct {
	next   Requester
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRequester(next Requester, store cache.Store, ttl time.Duration, logger *zap.Logger) *CachedRequester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRequester{next: next, store: store, ttl: ttl, logger: logger}
}

func (c *CachedRequester) Request(ctx context.Context, req models.PromptRequest) (interface{}, error) {
	key := responseKey(req)

	var cached interface{}
	hit, err := c.store.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("response cache read failed", zap.String("context", req.LogContext), zap.Error(err))
	} else if hit && cached != nil {
		return normalizeJSON(cached), nil
	}

	result, err := c.next.Request(ctx, req)
	if err != nil || result == nil {
		return result, err
	}
	if err := c.store.Set(ctx, key, result, c.ttl); err != nil {
		c.logger.Warn("response cache write failed", zap.String("context", req.LogContext), zap.Error(err))
	}
	return result, nil
}

func responseKey(req models.PromptRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%.3f", req.SystemPrompt, req.UserPrompt, req.MaxTokens, req.Temperature)
	return responseCachePrefix + hex.EncodeToString(h.Sum(nil))
}
