// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/tool-miner/internal/report"
	"github.com/pdiddy/tool-miner/internal/review"
	"github.com/pdiddy/tool-miner/pkg/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage the review database (store, retrieve, export)",
	Long: `Review keeps mined tools across runs in a local SQLite database so
curators can search them. Use subcommands to store a review feed, query
it, or export it.`,
}

// --- store subcommand ---

var reviewStoreCmd = &cobra.Command{
	Use:   "store [review.json]",
	Short: "Store a review feed in the review database",
	Long: `Store reads the review.json written by mine (default: review/review.json)
and ingests its tools and publications. Rows stored earlier under the same
run ID are replaced; tools seen in earlier runs move to this run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReviewStore,
}

func runReviewStore(cmd *cobra.Command, args []string) error {
	store, err := openReviewStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	path := filepath.Join(defaultOutputDir, report.JSONFile)
	if len(args) > 0 {
		path = args[0]
	}
	doc, err := report.ReadDocument(path)
	if err != nil {
		return err
	}

	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}

	_, err = store.Ingest(context.Background(), review.Batch{
		RunID:        runID,
		Records:      doc.Tools,
		Publications: doc.PublicationMap(),
	}, os.Stdout)
	return err
}

// --- retrieve subcommand ---

var reviewRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the review database with full-text search and filters",
	Long: `Retrieve searches stored tools using FTS5 full-text search over tool
names and their context sentences, structured filters (category,
priority, publication, novel), or a combination of both.`,
	RunE: runReviewRetrieve,
}

func runReviewRetrieve(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, --priority, --publication, or --novel")
	}

	store, err := openReviewStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []review.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-24s  %-8s  %-16s  %s\n",
		"Rank", "Name", "Category", "Priority", "Registry", "Publications")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		name := r.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		registryID := r.RegistryID
		if len(registryID) > 16 {
			registryID = registryID[:13] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-24s  %-8s  %-16s  %s\n",
			i+1, name, r.Category, r.Priority, registryID, strings.Join(r.PublicationIDs, ","))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var reviewExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the review database to YAML or JSON",
	Long: `Export writes stored tools (or a filtered subset) to index/export.yaml
or index/export.json under the review directory. Supports the same filter
flags as retrieve for partial exports.`,
	RunE: runReviewExport,
}

func runReviewExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openReviewStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openReviewStore(cmd *cobra.Command) (*review.Store, error) {
	if err := bindFlags(cmd, map[string]string{
		"review.dir":         "review-dir",
		"review.max_results": "max-results",
	}); err != nil {
		return nil, err
	}
	return review.NewStore(reviewConfig())
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) review.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	category, _ := cmd.Flags().GetString("category")
	priority, _ := cmd.Flags().GetString("priority")
	publicationID, _ := cmd.Flags().GetString("publication")
	novel, _ := cmd.Flags().GetBool("novel")
	limit, _ := cmd.Flags().GetInt("limit")

	return review.QueryOptions{
		Query:         queryText,
		Category:      types.ToolCategory(category),
		Priority:      types.Priority(priority),
		PublicationID: publicationID,
		NovelOnly:     novel,
		MaxResults:    limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "full-text search query")
	cmd.Flags().String("category", "", "filter by tool category")
	cmd.Flags().String("priority", "", "filter by priority: High, Medium, Low")
	cmd.Flags().String("publication", "", "filter by publication ID")
	cmd.Flags().Bool("novel", false, "only tools not in the registry")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	reviewCmd.PersistentFlags().String("review-dir", defaultReviewDir, "base directory for the review database (contains index/)")
	reviewCmd.PersistentFlags().Int("max-results", defaultMaxResults, "maximum number of query results")

	reviewStoreCmd.Flags().String("run-id", "", "run ID to store the feed under (default: a new ID)")

	addFilterFlags(reviewRetrieveCmd)
	reviewRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	reviewRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	reviewExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	addFilterFlags(reviewExportCmd)

	reviewCmd.AddCommand(reviewStoreCmd)
	reviewCmd.AddCommand(reviewRetrieveCmd)
	reviewCmd.AddCommand(reviewExportCmd)

	rootCmd.AddCommand(reviewCmd)
}
