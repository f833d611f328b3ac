package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// document command flags
	docCollection string
	docLanguage   string
	docOutputJSON bool

	// search command flags
	searchCollection string
	searchLanguage   string
	searchTopK       int
	searchOutputJSON bool
)

func init() {
	rootCmd.AddCommand(documentCmd)
	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)

	documentCmd.PersistentFlags().StringVar(&docCollection, "collection", "", "Collection name (defaults to the server default)")
	documentCmd.PersistentFlags().BoolVar(&docOutputJSON, "json", false, "Output results as JSON")
	documentAddCmd.Flags().StringVar(&docLanguage, "language", "", "Document language (auto-detected when empty)")

	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchCollection, "collection", "", "Collection to search (defaults to the server default)")
	searchCmd.Flags().StringVar(&searchLanguage, "lang", "", "Answer language (defaults to the query language)")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "Number of sources to retrieve")
	searchCmd.Flags().BoolVar(&searchOutputJSON, "json", false, "Output results as JSON")
}

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage documents",
	Long: `Manage documents in the vector store.

Examples:
  # Add a document from a file
  ragctl document add notes.txt

  # Add a document from stdin
  cat article.md | ragctl document add -

  # Fetch a stored chunk
  ragctl document get <chunk-id>

  # Delete a document and all its chunks
  ragctl document delete <document-id>`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add a document from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocumentAdd,
}

var documentGetCmd = &cobra.Command{
	Use:   "get <chunk-id>",
	Short: "Fetch a stored chunk by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

// DocumentRequest matches internal/http/handlers.go DocumentRequest
type DocumentRequest struct {
	Content    string `json:"content"`
	Collection string `json:"collection,omitempty"`
	Language   string `json:"language,omitempty"`
}

// AddResult matches internal/document/service.go AddResult
type AddResult struct {
	DocumentID string   `json:"document_id"`
	Collection string   `json:"collection"`
	Language   string   `json:"language"`
	ChunkCount int      `json:"chunk_count"`
	ChunkIDs   []string `json:"chunk_ids"`
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no content to add")
	}

	var result AddResult
	err = apiPost("/api/v1/documents", DocumentRequest{
		Content:    string(content),
		Collection: docCollection,
		Language:   docLanguage,
	}, &result)
	if err != nil {
		return err
	}

	if docOutputJSON {
		return printJSON(result)
	}

	fmt.Printf("Document ID: %s\n", result.DocumentID)
	fmt.Printf("Collection:  %s\n", result.Collection)
	fmt.Printf("Language:    %s\n", result.Language)
	fmt.Printf("Chunks:      %d\n", result.ChunkCount)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	path := "/api/v1/documents/" + args[0]
	if docCollection != "" {
		path += "?collection=" + docCollection
	}

	var chunk map[string]interface{}
	if err := apiGet(path, &chunk); err != nil {
		return err
	}
	return printJSON(chunk)
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	path := "/api/v1/documents/" + args[0]
	if docCollection != "" {
		path += "?collection=" + docCollection
	}

	if err := apiDelete(path); err != nil {
		return err
	}
	fmt.Printf("Deleted document %s\n", args[0])
	return nil
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search documents and generate an answer",
	Long: `Search the vector store and generate an answer from the retrieved context.

Examples:
  # Ask a question
  ragctl search "what is the capital of France?"

  # Search a specific collection with more sources
  ragctl search --collection articles --top-k 10 "quarterly revenue"

  # Answer in a specific language
  ragctl search --lang ru "what is the capital of France?"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchRequest matches internal/http/handlers.go SearchRequest
type SearchRequest struct {
	Query          string `json:"query"`
	Collection     string `json:"collection,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
}

// SearchSource is one retrieved source in a search result.
type SearchSource struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResult matches internal/rag/service.go QueryResult
type SearchResult struct {
	Response string         `json:"response"`
	Language string         `json:"language"`
	Sources  []SearchSource `json:"sources"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	var result SearchResult
	err := apiPost("/api/v1/search", SearchRequest{
		Query:          args[0],
		Collection:     searchCollection,
		TargetLanguage: searchLanguage,
		TopK:           searchTopK,
	}, &result)
	if err != nil {
		return err
	}

	if searchOutputJSON {
		return printJSON(result)
	}

	fmt.Println(result.Response)
	if len(result.Sources) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tID\tCONTENT")
		for _, source := range result.Sources {
			fmt.Fprintf(w, "%.3f\t%s\t%s\n", source.Score, source.ID, truncate(source.Content, 60))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
