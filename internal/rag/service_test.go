package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temafey/rag-vector-doc-claude/internal/language"
	"github.com/temafey/rag-vector-doc-claude/internal/reranker"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

// fakeStore returns canned search results and records the search call.
type fakeStore struct {
	vectorstore.Store

	results    []vectorstore.SearchResult
	searchErr  error
	collection string
	k          int
}

func (f *fakeStore) SearchInCollection(_ context.Context, collection, _ string, k int, _ map[string]interface{}) ([]vectorstore.SearchResult, error) {
	f.collection = collection
	f.k = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

// fakeGenerator echoes its inputs so tests can assert on the prompt parts.
type fakeGenerator struct {
	lang   string
	chunks []string
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, query string, contextChunks []string, lang string) (string, error) {
	f.lang = lang
	f.chunks = contextChunks
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("answer to %q from %d chunks", query, len(contextChunks)), nil
}

// staticLLM returns a fixed completion, used for the translator.
type staticLLM struct{ response string }

func (s staticLLM) Complete(context.Context, string) (string, error) {
	return s.response, nil
}

func enResults() []vectorstore.SearchResult {
	return []vectorstore.SearchResult{
		{ID: "c1", Content: "golang channels synchronize goroutines", Score: 0.9,
			Metadata: map[string]interface{}{"language": "en", "document_id": "d1"}},
		{ID: "c2", Content: "unrelated cooking recipe", Score: 0.4,
			Metadata: map[string]interface{}{"language": "en", "document_id": "d2"}},
	}
}

func TestService_Query(t *testing.T) {
	store := &fakeStore{results: enResults()}
	gen := &fakeGenerator{}

	svc, err := NewService(store, language.NewDetector(nil), gen, Options{TopK: 2})
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), QueryRequest{
		Query: "how do golang channels work with goroutines",
	})
	require.NoError(t, err)

	assert.Equal(t, "en", result.QueryLanguage)
	assert.Equal(t, "en", result.ResponseLanguage)
	assert.Contains(t, result.Response, "2 chunks")
	assert.Len(t, result.Sources, 2)
	assert.Equal(t, "en", gen.lang)
	assert.Equal(t, "documents", store.collection)
}

func TestService_Query_Reranked(t *testing.T) {
	store := &fakeStore{results: enResults()}
	gen := &fakeGenerator{}

	svc, err := NewService(store, language.NewDetector(nil), gen, Options{
		TopK:     1,
		Reranker: reranker.NewSimpleReranker(),
	})
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), QueryRequest{
		Query: "how do golang channels synchronize goroutines",
	})
	require.NoError(t, err)

	// Reranker over-fetches then keeps the best hit.
	assert.Equal(t, 3, store.k)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "c1", result.Sources[0].ID)
}

func TestService_Query_TranslatesForeignChunks(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "ru1", Content: "каналы синхронизируют горутины", Score: 0.8,
			Metadata: map[string]interface{}{"language": "ru"}},
	}}
	gen := &fakeGenerator{}
	translator := language.NewTranslator(staticLLM{response: "channels synchronize goroutines"})

	svc, err := NewService(store, language.NewDetector(nil), gen, Options{
		Translator: translator,
	})
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), QueryRequest{
		Query:          "how do channels work",
		TargetLanguage: "en",
	})
	require.NoError(t, err)

	// Generator saw the translation, sources keep the original.
	require.Len(t, gen.chunks, 1)
	assert.Equal(t, "channels synchronize goroutines", gen.chunks[0])
	assert.Equal(t, "каналы синхронизируют горутины", result.Sources[0].Content)
}

func TestService_Query_EmptyQuery(t *testing.T) {
	svc, err := NewService(&fakeStore{}, nil, &fakeGenerator{}, Options{})
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), QueryRequest{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestService_Query_SearchError(t *testing.T) {
	store := &fakeStore{searchErr: errors.New("store down")}
	svc, err := NewService(store, nil, &fakeGenerator{}, Options{})
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), QueryRequest{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestService_Query_GeneratorError(t *testing.T) {
	store := &fakeStore{results: enResults()}
	gen := &fakeGenerator{err: errors.New("model overloaded")}

	svc, err := NewService(store, nil, gen, Options{})
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), QueryRequest{Query: "anything at all"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestService_Similar(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a_0", Content: "first chunk", Score: 0.9, Metadata: map[string]interface{}{"document_id": "a"}},
		{ID: "a_1", Content: "second chunk same doc", Score: 0.85, Metadata: map[string]interface{}{"document_id": "a"}},
		{ID: "b_0", Content: "different doc", Score: 0.7, Metadata: map[string]interface{}{"document_id": "b"}},
		{ID: "c_0", Content: "excluded doc", Score: 0.6, Metadata: map[string]interface{}{"document_id": "c"}},
	}}

	svc, err := NewService(store, nil, &fakeGenerator{}, Options{})
	require.NoError(t, err)

	sources, err := svc.Similar(context.Background(), SimilarRequest{
		ReferenceText: "reference",
		Limit:         3,
		ExcludeIDs:    []string{"c"},
	})
	require.NoError(t, err)

	// One hit per parent document, exclusions dropped.
	require.Len(t, sources, 2)
	assert.Equal(t, "a_0", sources[0].ID)
	assert.Equal(t, "b_0", sources[1].ID)
}

func TestService_Similar_EmptyReference(t *testing.T) {
	svc, err := NewService(&fakeStore{}, nil, &fakeGenerator{}, Options{})
	require.NoError(t, err)

	_, err = svc.Similar(context.Background(), SimilarRequest{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestLLMGenerator_Templates(t *testing.T) {
	gen, err := NewLLMGenerator(promptEcho{})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "what is a channel", []string{"chunk one", "chunk two"}, "en")
	require.NoError(t, err)
	assert.Contains(t, out, "Question: what is a channel")
	assert.Contains(t, out, "chunk one\n\nchunk two")

	out, err = gen.Generate(context.Background(), "что такое канал", []string{"фрагмент"}, "ru")
	require.NoError(t, err)
	assert.Contains(t, out, "Вопрос: что такое канал")

	// Unknown language falls back to the English template.
	out, err = gen.Generate(context.Background(), "comment ça marche", nil, "fr")
	require.NoError(t, err)
	assert.Contains(t, out, "Question: comment ça marche")
}

func TestLLMGenerator_AddTemplate(t *testing.T) {
	gen, err := NewLLMGenerator(promptEcho{})
	require.NoError(t, err)

	require.Error(t, gen.AddTemplate("de", "no placeholders"))

	require.NoError(t, gen.AddTemplate("de", "Kontext: %[1]s Frage: %[2]s"))
	out, err := gen.Generate(context.Background(), "wie geht das", []string{"Stück"}, "de")
	require.NoError(t, err)
	assert.Contains(t, out, "Frage: wie geht das")
}

// promptEcho returns the prompt itself as the completion.
type promptEcho struct{}

func (promptEcho) Complete(_ context.Context, prompt string) (string, error) {
	return strings.TrimSpace(prompt), nil
}
