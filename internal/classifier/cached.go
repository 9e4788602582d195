package classifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/newsguard/internal/cache"
)

// Cached memoizes predictions of a deterministic classifier
type Cached struct {
	inner Classifier
	store cache.Cache
	ttl   time.Duration
}

var _ Classifier = (*Cached)(nil)

// NewCached wraps inner with store. ttl of zero uses the store's default.
func NewCached(inner Classifier, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl}
}

func (c *Cached) Name() string {
	return c.inner.Name()
}

func (c *Cached) Classify(ctx context.Context, text string) (Prediction, error) {
	key := cache.Key(c.inner.Name(), text)

	if data, ok := c.store.Get(key); ok {
		var p Prediction
		if err := json.Unmarshal(data, &p); err == nil && p.validate() == nil {
			return p, nil
		}
		_ = c.store.Delete(key)
	}

	p, err := c.inner.Classify(ctx, text)
	if err != nil {
		return Prediction{}, err
	}

	// a failed write only costs a recomputation
	if data, err := json.Marshal(p); err == nil {
		_ = c.store.Set(key, data, c.ttl)
	}
	return p, nil
}
