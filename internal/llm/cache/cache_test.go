package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompleter struct {
	calls int
	reply string
	err   error
}

func (c *countingCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.reply + prompt, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenStore) Close() error { return nil }

func TestCompleter_ServesRepeatsFromStore(t *testing.T) {
	next := &countingCompleter{reply: `{"r":1} `}
	c := NewCompleter(next, NewMemoryStore(10), time.Hour, "llama3.1", nil)

	a, err := c.Complete(context.Background(), "p1")
	require.NoError(t, err)
	b, err := c.Complete(context.Background(), "p1")
	require.NoError(t, err)
	other, err := c.Complete(context.Background(), "p2")
	require.NoError(t, err)

	assert.Equal(t, `{"r":1} p1`, a)
	assert.Equal(t, a, b)
	assert.Equal(t, `{"r":1} p2`, other)
	assert.Equal(t, 2, next.calls)
}

func TestCompleter_DoesNotCacheRepliesWithoutJSON(t *testing.T) {
	next := &countingCompleter{reply: "sorry, nothing found "}
	store := NewMemoryStore(10)
	c := NewCompleter(next, store, time.Hour, "m", nil)

	first, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "p")
	require.NoError(t, err)

	assert.Equal(t, "sorry, nothing found p", first)
	assert.Equal(t, 2, next.calls)
	_, err = store.Get(context.Background(), Key("m", "p"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCompleter_DoesNotCacheErrors(t *testing.T) {
	next := &countingCompleter{err: errors.New("refused")}
	c := NewCompleter(next, NewMemoryStore(10), time.Hour, "m", nil)

	_, err := c.Complete(context.Background(), "p")
	assert.Error(t, err)
	_, err = c.Complete(context.Background(), "p")
	assert.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCompleter_BypassesBrokenStore(t *testing.T) {
	next := &countingCompleter{reply: `{"ok":1}`}
	c := NewCompleter(next, brokenStore{}, time.Hour, "m", nil)

	got, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":1}p`, got)
}

func TestKey_NamespaceSeparates(t *testing.T) {
	assert.NotEqual(t, Key("a", "p"), Key("b", "p"))
	assert.Equal(t, Key("a", "p"), Key("a", "p"))
	assert.Len(t, Key("a", "p"), 64)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(10)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStore_Eviction(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, s.Set(ctx, "c", []byte("3"), time.Hour))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = s.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestNewStore_EmptyAddrIsMemory(t *testing.T) {
	s, err := NewStore(context.Background(), "", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
