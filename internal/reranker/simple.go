package reranker

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// SimpleReranker re-ranks by lexical term overlap between query and
// document, blended with the original similarity score. Tokenization is
// Unicode-aware so non-Latin scripts rank the same way as English.
type SimpleReranker struct{}

// NewSimpleReranker creates a SimpleReranker.
func NewSimpleReranker() *SimpleReranker {
	return &SimpleReranker{}
}

// Rerank combines the original score (50%) with query term overlap (50%),
// sorts by the combined score, and returns the top K results.
func (r *SimpleReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if topK <= 0 {
		topK = len(docs)
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return fallbackRank(docs, topK), nil
	}

	type scoredDoc struct {
		doc      ScoredDocument
		combined float32
	}

	scoredDocs := make([]scoredDoc, len(docs))
	for i, doc := range docs {
		overlap := termOverlap(queryTokens, tokenize(doc.Content))

		const originalWeight = 0.5
		const overlapWeight = 0.5
		combined := originalWeight*doc.Score + overlapWeight*overlap

		scoredDocs[i] = scoredDoc{
			doc: ScoredDocument{
				Document:      doc,
				RerankerScore: overlap,
				OriginalRank:  i,
			},
			combined: combined,
		}
	}

	sort.SliceStable(scoredDocs, func(i, j int) bool {
		return scoredDocs[i].combined > scoredDocs[j].combined
	})

	limit := topK
	if limit > len(scoredDocs) {
		limit = len(scoredDocs)
	}

	result := make([]ScoredDocument, limit)
	for i := 0; i < limit; i++ {
		result[i] = scoredDocs[i].doc
	}
	return result, nil
}

// Close is a no-op, SimpleReranker holds no resources.
func (r *SimpleReranker) Close() error {
	return nil
}

// rerankStopwords are high-frequency English function words excluded from
// overlap scoring. Other languages pass through unfiltered.
var rerankStopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"from": true, "was": true, "are": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "you": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
}

// tokenize splits text into lowercase terms, dropping stopwords and
// tokens shorter than three runes.
func tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len([]rune(token)) > 2 && !rerankStopwords[token] {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// termOverlap returns the fraction of unique query terms present in the
// document, in [0.0, 1.0].
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0.0
	}

	docTokenSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docTokenSet[token] = true
	}

	unique := make(map[string]bool, len(queryTokens))
	matched := 0
	for _, token := range queryTokens {
		if unique[token] {
			continue
		}
		unique[token] = true
		if docTokenSet[token] {
			matched++
		}
	}

	return float32(matched) / float32(len(unique))
}

// fallbackRank ranks by original score when the query yields no tokens.
func fallbackRank(docs []Document, topK int) []ScoredDocument {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	limit := topK
	if limit > len(sorted) {
		limit = len(sorted)
	}

	result := make([]ScoredDocument, limit)
	for i := 0; i < limit; i++ {
		result[i] = ScoredDocument{
			Document:      sorted[i],
			RerankerScore: sorted[i].Score,
			OriginalRank:  i,
		}
	}
	return result
}

var _ Reranker = (*SimpleReranker)(nil)
