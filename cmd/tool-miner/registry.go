// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tool-miner/internal/registry"
	"github.com/pdiddy/tool-miner/pkg/types"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Seed and inspect the curated tool registry",
	Long: `Registry manages the curated tool registry that mined candidates are
resolved against. Use import to load a YAML registry into the SQLite
database and list to print what a run would see.`,
}

var registryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML registry file into the registry database",
	Long: `Import reads a YAML list of tools (id, category, name, synonyms) and
upserts each into the SQLite registry database. Existing tools have their
name and synonyms replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegistryImport,
}

func runRegistryImport(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{"registry.db_path": "registry-db"}); err != nil {
		return err
	}
	dbPath := viper.GetString("registry.db_path")
	if dbPath == "" {
		return fmt.Errorf("--registry-db is required")
	}

	tools, err := registry.LoadYAML(args[0])
	if err != nil {
		return err
	}

	store, err := registry.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Import(context.Background(), tools, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d tool(s) failed import", summary.Failed)
	}
	return nil
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry tools",
	RunE:  runRegistryList,
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"registry.db_path": "registry-db",
		"registry.file":    "registry-file",
	}); err != nil {
		return err
	}
	category, _ := cmd.Flags().GetString("category")
	cat := types.ToolCategory(category)
	if cat != "" && !cat.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidCategory, category)
	}

	reg, closeReg, err := openRegistry(registryConfig())
	if err != nil {
		return err
	}
	defer closeReg()

	snap, err := registry.LoadSnapshot(context.Background(), reg)
	if err != nil {
		return err
	}

	tools := snap.All()
	if cat != "" {
		tools = snap.Tools(cat)
	}
	if len(tools) == 0 {
		fmt.Println("No tools found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-26s  %-30s  %s\n", "ID", "Category", "Name", "Synonyms")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, t := range tools {
		fmt.Fprintf(os.Stdout, "%-20s  %-26s  %-30s  %s\n",
			t.ID, t.Category, t.Name, strings.Join(t.Synonyms, ", "))
	}
	fmt.Fprintf(os.Stdout, "\n%d tools\n", len(tools))
	return nil
}

func init() {
	registryCmd.PersistentFlags().String("registry-db", "", "SQLite registry database")

	registryListCmd.Flags().String("registry-file", "", "YAML registry file (used when --registry-db is not set)")
	registryListCmd.Flags().String("category", "", "filter by tool category")

	registryCmd.AddCommand(registryImportCmd)
	registryCmd.AddCommand(registryListCmd)

	rootCmd.AddCommand(registryCmd)
}
