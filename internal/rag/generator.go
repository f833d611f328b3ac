package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/temafey/rag-vector-doc-claude/internal/llm"
)

// Generator produces an answer from a query and retrieved context.
type Generator interface {
	Generate(ctx context.Context, query string, contextChunks []string, lang string) (string, error)
}

// promptTemplates holds the built-in answer templates by language.
// Placeholders: %[1]s context, %[2]s question.
var promptTemplates = map[string]string{
	"en": `Answer the question using the context below:

Context:
%[1]s

Question: %[2]s

Answer:`,
	"ru": `Ответь на вопрос, используя контекст ниже:

Контекст:
%[1]s

Вопрос: %[2]s

Ответ:`,
}

// LLMGenerator generates answers with a chat completion model using
// language-specific prompt templates. Languages without a template fall
// back to English.
type LLMGenerator struct {
	client    llm.Client
	templates map[string]string
}

// NewLLMGenerator creates a generator backed by an LLM client.
func NewLLMGenerator(client llm.Client) (*LLMGenerator, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	templates := make(map[string]string, len(promptTemplates))
	for lang, tpl := range promptTemplates {
		templates[lang] = tpl
	}

	return &LLMGenerator{client: client, templates: templates}, nil
}

// AddTemplate registers or replaces the answer template for a language.
// The template must contain %[1]s for the context and %[2]s for the question.
func (g *LLMGenerator) AddTemplate(lang, template string) error {
	if !strings.Contains(template, "%[1]s") || !strings.Contains(template, "%[2]s") {
		return fmt.Errorf("template for %q must contain %%[1]s and %%[2]s placeholders", lang)
	}
	g.templates[lang] = template
	return nil
}

// Generate builds the prompt for the target language and completes it.
func (g *LLMGenerator) Generate(ctx context.Context, query string, contextChunks []string, lang string) (string, error) {
	template, ok := g.templates[lang]
	if !ok {
		template = g.templates["en"]
	}

	contextText := strings.Join(contextChunks, "\n\n")
	prompt := fmt.Sprintf(template, contextText, query)

	response, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	return strings.TrimSpace(response), nil
}

var _ Generator = (*LLMGenerator)(nil)
