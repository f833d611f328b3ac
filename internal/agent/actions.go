package agent

import (
	"context"
	"fmt"

	"github.com/temafey/rag-vector-doc-claude/internal/evaluation"
	"github.com/temafey/rag-vector-doc-claude/internal/rag"
)

// RegisterBuiltins wires the standard action set: search and generate
// against the RAG service, plus evaluate and improve when a loop and
// improver are provided.
func RegisterBuiltins(registry *Registry, ragService *rag.Service, generator rag.Generator, loop *evaluation.Loop, improver *evaluation.Improver) error {
	if registry == nil {
		return fmt.Errorf("registry is required")
	}
	if ragService == nil {
		return fmt.Errorf("rag service is required")
	}
	if generator == nil {
		return fmt.Errorf("generator is required")
	}

	err := registry.Register(ActionSearch, searchHandler(ragService), map[string]interface{}{
		"description": "retrieve context chunks for a query",
	})
	if err != nil {
		return err
	}

	err = registry.Register(ActionGenerate, generateHandler(generator), map[string]interface{}{
		"description": "generate a response from retrieved context",
	})
	if err != nil {
		return err
	}

	if loop != nil {
		err = registry.Register(ActionEvaluate, evaluateHandler(loop), map[string]interface{}{
			"description": "evaluate a response and improve it while it fails quality thresholds",
		})
		if err != nil {
			return err
		}
	}

	if improver != nil {
		err = registry.Register(ActionImprove, improveHandler(improver), map[string]interface{}{
			"description": "revise a response from an existing evaluation",
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func searchHandler(ragService *rag.Service) Handler {
	return func(ctx context.Context, _ *Agent, params map[string]interface{}) (interface{}, error) {
		query, err := stringParam(params, "query")
		if err != nil {
			return nil, err
		}
		collection, _ := params["collection"].(string)

		sources, err := ragService.Search(ctx, rag.QueryRequest{
			Query:      query,
			Collection: collection,
			TopK:       intParam(params, "top_k"),
		})
		if err != nil {
			return nil, err
		}
		return sources, nil
	}
}

func generateHandler(generator rag.Generator) Handler {
	return func(ctx context.Context, _ *Agent, params map[string]interface{}) (interface{}, error) {
		query, err := stringParam(params, "query")
		if err != nil {
			return nil, err
		}
		lang, _ := params["language"].(string)

		return generator.Generate(ctx, query, contextChunks(params["context"]), lang)
	}
}

func evaluateHandler(loop *evaluation.Loop) Handler {
	return func(ctx context.Context, _ *Agent, params map[string]interface{}) (interface{}, error) {
		query, err := stringParam(params, "query")
		if err != nil {
			return nil, err
		}
		response, err := stringParam(params, "response")
		if err != nil {
			return nil, err
		}

		return loop.Run(ctx, query, response, contextChunks(params["context"]))
	}
}

func improveHandler(improver *evaluation.Improver) Handler {
	return func(ctx context.Context, _ *Agent, params map[string]interface{}) (interface{}, error) {
		eval, ok := params["evaluation"].(*evaluation.Result)
		if !ok {
			return nil, fmt.Errorf("improve action requires an evaluation parameter")
		}
		return improver.Improve(ctx, eval)
	}
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("parameter %s is required", key)
	}
	return v, nil
}

// intParam reads an integer parameter, tolerating the float64 that JSON
// decoding produces. Returns 0 when absent.
func intParam(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// contextChunks extracts context text from the shapes a search result
// takes as it moves between actions: retrieved sources, plain strings,
// or decoded JSON.
func contextChunks(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []rag.Source:
		chunks := make([]string, len(v))
		for i, src := range v {
			chunks[i] = src.Content
		}
		return chunks
	case []string:
		return v
	case string:
		return []string{v}
	case []interface{}:
		var chunks []string
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				chunks = append(chunks, entry)
			case map[string]interface{}:
				if content, ok := entry["content"].(string); ok {
					chunks = append(chunks, content)
				}
			}
		}
		return chunks
	default:
		return nil
	}
}
