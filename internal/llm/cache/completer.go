package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
)

// Completer is an llm.TextCompleter that serves repeated prompts from a Store.
// Only successful replies that contain a JSON object are cached; store failures are
// logged and bypassed.
type Completer struct {
	next      llm.TextCompleter
	store     Store
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
}

// NewCompleter wraps next. namespace separates entries of different models sharing one store.
func NewCompleter(next llm.TextCompleter, store Store, ttl time.Duration, namespace string, logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Completer{next: next, store: store, ttl: ttl, namespace: namespace, logger: logger}
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	key := Key(c.namespace, prompt)

	if b, err := c.store.Get(ctx, key); err == nil {
		c.logger.Debug("llm.cache.hit", "key", key[:12])
		return string(b), nil
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("llm.cache.get_failed", "error", err)
	}

	reply, err := c.next.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if _, ok := llm.FirstJSONObject(reply); !ok {
		c.logger.Debug("llm.cache.skip_unparsable", "key", key[:12], "reply_len", len(reply))
		return reply, nil
	}
	if err := c.store.Set(ctx, key, []byte(reply), c.ttl); err != nil {
		c.logger.Warn("llm.cache.set_failed", "error", err)
	}
	return reply, nil
}

// Key is the hex sha256 of namespace and prompt.
func Key(namespace, prompt string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
