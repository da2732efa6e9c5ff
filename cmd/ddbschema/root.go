package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/ddbschema/schema"
	"github.com/jacentio/ddbschema/schemadef"
)

var rootCmd = &cobra.Command{
	Use:   "ddbschema",
	Short: "Schema-driven DynamoDB items",
	Long: `ddbschema validates items against a YAML schema definition, converts them
between their formatted and stored shapes, and reads or writes them in DynamoDB.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("schema", "s", "", "Path to the YAML schema definition")
	rootCmd.PersistentFlags().StringP("input", "i", "-", "JSON input file, - for stdin")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	_ = rootCmd.MarkPersistentFlagRequired("schema")
}

// loadSchema reads the definition named by the --schema flag.
func loadSchema(cmd *cobra.Command) (schemadef.Document, *schema.Schema, error) {
	path, _ := cmd.Flags().GetString("schema")
	doc, err := schemadef.ParseFile(path)
	if err != nil {
		return schemadef.Document{}, nil, err
	}
	s, err := doc.Schema()
	if err != nil {
		return schemadef.Document{}, nil, fmt.Errorf("schema %s: %w", path, err)
	}
	slog.Debug("loaded schema", "path", path, "entity", doc.Entity, "attributes", len(s.Attributes()))
	return doc, s, nil
}
