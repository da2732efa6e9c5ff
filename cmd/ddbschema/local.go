package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/ddbschema/expression"
	"github.com/jacentio/ddbschema/formatter"
	"github.com/jacentio/ddbschema/parser"
	"github.com/jacentio/ddbschema/schema"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Validate an item and print its stored form",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadSchema(cmd)
		if err != nil {
			return err
		}
		input, err := readInput(cmd)
		if err != nil {
			return err
		}

		mode, _ := cmd.Flags().GetString("mode")
		if !schema.Mode(mode).Valid() {
			return fmt.Errorf("unknown mode %q", mode)
		}
		raw, _ := cmd.Flags().GetBool("raw")

		stored, err := parser.Parse(s, input,
			parser.Mode(schema.Mode(mode)),
			parser.Transform(!raw),
		)
		if err != nil {
			return err
		}
		return writeOutput(cmd, stored)
	},
}

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Convert a stored item to its formatted form",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadSchema(cmd)
		if err != nil {
			return err
		}
		input, err := readInput(cmd)
		if err != nil {
			return err
		}

		var opts []formatter.Option
		if attrs, _ := cmd.Flags().GetStringSlice("attributes"); len(attrs) > 0 {
			opts = append(opts, formatter.Attributes(attrs...))
		}
		if partial, _ := cmd.Flags().GetBool("partial"); partial {
			opts = append(opts, formatter.Partial())
		}

		formatted, err := formatter.Format(s, input, opts...)
		if err != nil {
			return err
		}
		return writeOutput(cmd, formatted)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <path>...",
	Short: "Resolve attribute paths to expression placeholders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		prefix, _ := cmd.Flags().GetString("prefix")
		r := expression.NewResolver(s.Root(), prefix)

		paths := make([]string, 0, len(args))
		for _, arg := range args {
			p, err := r.Resolve(arg)
			if err != nil {
				return err
			}
			paths = append(paths, p.Expression)
		}
		return writeOutput(cmd, map[string]any{
			"paths": paths,
			"names": r.Names(),
		})
	},
}

func init() {
	parseCmd.Flags().StringP("mode", "m", string(schema.ModePut), "Parse mode: key, put or update")
	parseCmd.Flags().Bool("raw", false, "Skip renaming and transforms")

	formatCmd.Flags().StringSliceP("attributes", "a", nil, "Only include these attribute paths")
	formatCmd.Flags().Bool("partial", false, "Allow missing required attributes")

	pathCmd.Flags().String("prefix", "", "Placeholder prefix")

	rootCmd.AddCommand(parseCmd, formatCmd, pathCmd)
}
