package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// collection command flags
	colVectorSize int
	colOutputJSON bool
)

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)

	collectionCmd.PersistentFlags().BoolVar(&colOutputJSON, "json", false, "Output results as JSON")
	collectionCreateCmd.Flags().IntVar(&colVectorSize, "vector-size", 0, "Vector dimension (defaults to the server default)")
}

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
	Long: `Manage vector store collections.

Examples:
  # List collections
  ragctl collection list

  # Create a collection
  ragctl collection create articles --vector-size 1536

  # Delete a collection and all its documents
  ragctl collection delete articles`,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE:  runCollectionList,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionCreate,
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDelete,
}

// CollectionInfo matches internal/vectorstore/models.go CollectionInfo
type CollectionInfo struct {
	Name       string `json:"name"`
	PointCount int    `json:"point_count"`
	VectorSize int    `json:"vector_size"`
}

// CollectionRequest matches internal/http/handlers.go CollectionRequest
type CollectionRequest struct {
	Name       string `json:"name"`
	VectorSize int    `json:"vector_size,omitempty"`
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	var infos []CollectionInfo
	if err := apiGet("/api/v1/collections", &infos); err != nil {
		return err
	}

	if colOutputJSON {
		return printJSON(infos)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOINTS\tVECTOR SIZE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%d\n", info.Name, info.PointCount, info.VectorSize)
	}
	return w.Flush()
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	err := apiPost("/api/v1/collections", CollectionRequest{
		Name:       args[0],
		VectorSize: colVectorSize,
	}, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Created collection %s\n", args[0])
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/api/v1/collections/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted collection %s\n", args[0])
	return nil
}
