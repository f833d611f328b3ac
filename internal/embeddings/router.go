package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

// Router selects an embedding provider per language. Languages with a
// dedicated model configured get their own provider; everything else
// falls back to the default.
//
// Router itself implements Provider by delegating to the default, so it
// can be handed directly to a vector store.
type Router struct {
	fallback  Provider
	byLang    map[string]Provider
	providers []Provider
}

// NewRouter builds a Router from the embeddings configuration. Providers
// are shared between languages that map to the same model.
func NewRouter(cfg config.EmbeddingsConfig, metrics *Metrics) (*Router, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: default model required", ErrInvalidConfig)
	}

	newProvider := func(model string) (Provider, error) {
		return NewProvider(ProviderConfig{
			Provider: "openai",
			Model:    model,
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey.Value(),
			Metrics:  metrics,
		})
	}

	fallback, err := newProvider(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating default provider: %w", err)
	}

	r := &Router{
		fallback:  fallback,
		byLang:    make(map[string]Provider, len(cfg.Models)),
		providers: []Provider{fallback},
	}

	byModel := map[string]Provider{cfg.Model: fallback}
	for lang, model := range cfg.Models {
		p, ok := byModel[model]
		if !ok {
			p, err = newProvider(model)
			if err != nil {
				r.closeAll()
				return nil, fmt.Errorf("creating provider for language %q: %w", lang, err)
			}
			byModel[model] = p
			r.providers = append(r.providers, p)
		}
		r.byLang[lang] = p
	}

	return r, nil
}

// ForLanguage returns the provider for a language, falling back to the
// default when no dedicated model is configured.
func (r *Router) ForLanguage(lang string) Provider {
	if p, ok := r.byLang[lang]; ok {
		return p
	}
	return r.fallback
}

// EmbedDocuments embeds with the default provider.
func (r *Router) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return r.fallback.EmbedDocuments(ctx, texts)
}

// EmbedQuery embeds with the default provider.
func (r *Router) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return r.fallback.EmbedQuery(ctx, text)
}

// Dimension returns the default provider's embedding dimension.
func (r *Router) Dimension() int {
	return r.fallback.Dimension()
}

// Close closes all providers owned by the router.
func (r *Router) Close() error {
	return r.closeAll()
}

func (r *Router) closeAll() error {
	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Provider = (*Router)(nil)
