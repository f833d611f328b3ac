package language

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/temafey/rag-vector-doc-claude/internal/llm"
)

const defaultCacheSize = 1000

// Translator translates text between languages via the completion LLM.
// Results are cached in memory keyed by text and language pair.
type Translator struct {
	client llm.Client

	mu      sync.Mutex
	cache   map[string]string
	order   []string
	maxSize int
	hits    int
	misses  int
}

// NewTranslator creates a Translator backed by the given LLM client.
func NewTranslator(client llm.Client) *Translator {
	return &Translator{
		client:  client,
		cache:   make(map[string]string),
		maxSize: defaultCacheSize,
	}
}

// Translate translates text from sourceLang to targetLang.
// Identical language pairs return the text unchanged.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang || strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := cacheKey(text, sourceLang, targetLang)
	if cached, ok := t.lookup(key); ok {
		return cached, nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. "+
			"Return only the translation, without explanations or quotes.\n\nText:\n%s",
		sourceLang, targetLang, text,
	)

	translated, err := t.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("translation %s->%s failed: %w", sourceLang, targetLang, err)
	}
	translated = strings.TrimSpace(translated)

	t.store(key, translated)
	return translated, nil
}

// CacheStats reports cache usage.
type CacheStats struct {
	Size   int     `json:"size"`
	Hits   int     `json:"hits"`
	Misses int     `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

// Stats returns current cache statistics.
func (t *Translator) Stats() CacheStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.hits + t.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(t.hits) / float64(total)
	}
	return CacheStats{Size: len(t.cache), Hits: t.hits, Misses: t.misses, Ratio: ratio}
}

func (t *Translator) lookup(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.cache[key]
	if ok {
		t.hits++
	} else {
		t.misses++
	}
	return v, ok
}

func (t *Translator) store(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Evict the oldest tenth when full.
	if len(t.cache) >= t.maxSize {
		evict := t.maxSize / 10
		if evict < 1 {
			evict = 1
		}
		for _, old := range t.order[:evict] {
			delete(t.cache, old)
		}
		t.order = t.order[evict:]
	}

	if _, exists := t.cache[key]; !exists {
		t.order = append(t.order, key)
	}
	t.cache[key] = value
}

// cacheKey hashes long texts to keep keys bounded.
func cacheKey(text, sourceLang, targetLang string) string {
	if len(text) > 100 {
		sum := sha256.Sum256([]byte(text))
		text = hex.EncodeToString(sum[:])
	}
	return text + "_" + sourceLang + "_" + targetLang
}
