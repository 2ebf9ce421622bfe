package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls [][]string
	err   error
	out   func(string) []float64
}

func (c *countingEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	c.calls = append(c.calls, texts)
	if c.err != nil {
		return nil, c.err
	}
	vecs := make([][]float64, len(texts))
	for i, t := range texts {
		if c.out != nil {
			vecs[i] = c.out(t)
		} else {
			vecs[i] = []float64{float64(len(t)), 0.5}
		}
	}
	return vecs, nil
}

func TestCleanEmbedder(t *testing.T) {
	inner := &countingEmbedder{out: func(string) []float64 {
		return []float64{math.NaN(), 1, math.Inf(-1)}
	}}
	vecs, err := NewCleanEmbedder(inner).EmbedStrings(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1, 0}}, vecs)

	_, err = NewCleanEmbedder(&countingEmbedder{err: errors.New("down")}).EmbedStrings(context.Background(), []string{"a"})
	assert.EqualError(t, err, "down")
}

func TestDimension(t *testing.T) {
	dim, err := Dimension(context.Background(), &countingEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	_, err = Dimension(context.Background(), &countingEmbedder{out: func(string) []float64 { return nil }})
	assert.Error(t, err)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedEmbedder(t *testing.T) {
	mr, rdb := newRedis(t)
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, rdb, "nomic-embed-text", time.Hour)
	ctx := context.Background()

	first, err := cached.EmbedStrings(ctx, []string{"termination", "notice"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{11, 0.5}, {6, 0.5}}, first)

	second, err := cached.EmbedStrings(ctx, []string{"notice", "breach"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{6, 0.5}, {6, 0.5}}, second)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"breach"}, inner.calls[1], "only misses reach the embedder")

	key := cached.key("notice")
	assert.True(t, mr.Exists(key))
	assert.Contains(t, key, "emb:nomic-embed-text:")
	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(key))
}

func TestCachedEmbedderRedisDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	inner := &countingEmbedder{}

	vecs, err := NewCachedEmbedder(inner, rdb, "m", time.Minute).EmbedStrings(context.Background(), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0.5}}, vecs)
	assert.Len(t, inner.calls, 1)
}

func TestCachedEmbedderInnerError(t *testing.T) {
	_, rdb := newRedis(t)
	_, err := NewCachedEmbedder(&countingEmbedder{err: errors.New("ollama down")}, rdb, "m", time.Minute).
		EmbedStrings(context.Background(), []string{"q"})
	assert.EqualError(t, err, "ollama down")
}
