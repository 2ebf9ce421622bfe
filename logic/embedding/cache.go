package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"
)

// CachedEmbedder keeps query embeddings in Redis so repeated questions skip
// the embedding call. Redis failures fall through to the wrapped embedder.
type CachedEmbedder struct {
	inner  embedding.Embedder
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCachedEmbedder(inner embedding.Embedder, rdb *redis.Client, modelName string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		rdb:    rdb,
		prefix: "emb:" + modelName + ":",
		ttl:    ttl,
	}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		raw, err := c.rdb.Get(ctx, c.key(text)).Bytes()
		if err == nil {
			var vec []float64
			if json.Unmarshal(raw, &vec) == nil && len(vec) > 0 {
				out[i] = vec
				continue
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ [EmbeddingCache] get failed: %v", err)
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, idx := range missIdx {
		out[idx] = vecs[j]
		data, _ := json.Marshal(vecs[j])
		if err := c.rdb.Set(ctx, c.key(missTexts[j]), data, c.ttl).Err(); err != nil {
			log.Printf("⚠️ [EmbeddingCache] set failed: %v", err)
		}
	}
	return out, nil
}
