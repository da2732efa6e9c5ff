package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spf13/cobra"

	"github.com/jacentio/ddbschema/store"
)

// connect builds the store and the entity described by the --schema flag.
func connect(cmd *cobra.Command) (*store.Store, *store.Entity, error) {
	doc, s, err := loadSchema(cmd)
	if err != nil {
		return nil, nil, err
	}

	table := store.Table{
		Name:         doc.Table.Name,
		PartitionKey: store.KeyDef{Name: doc.Table.PartitionKey, Type: types.ScalarAttributeTypeS},
	}
	if name, _ := cmd.Flags().GetString("table"); name != "" {
		table.Name = name
	}
	if doc.Table.SortKey != "" {
		table.SortKey = &store.KeyDef{Name: doc.Table.SortKey, Type: types.ScalarAttributeTypeS}
	}

	e, err := store.NewEntity(doc.Entity, table, s)
	if err != nil {
		return nil, nil, err
	}

	var opts []func(*config.LoadOptions) error
	if profile, _ := cmd.Flags().GetString("profile"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(cmd.Context(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if ep, _ := cmd.Flags().GetString("endpoint"); ep != "" {
			o.BaseEndpoint = &ep
		}
	})

	storeCfg := store.DefaultConfig()
	if ttl, _ := cmd.Flags().GetString("ttl-attribute"); ttl != "" {
		storeCfg.TTLAttribute = ttl
	}
	return store.New(client, storeCfg), e, nil
}

// runStore wraps a store operation in a command handler.
func runStore(fn func(ctx context.Context, cmd *cobra.Command, st *store.Store, e *store.Entity) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, e, err := connect(cmd)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), cmd, st, e)
	}
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Read an item by key",
	RunE: runStore(func(ctx context.Context, cmd *cobra.Command, st *store.Store, e *store.Entity) error {
		key, err := readInput(cmd)
		if err != nil {
			return err
		}
		attrs, _ := cmd.Flags().GetStringSlice("attributes")
		consistent, _ := cmd.Flags().GetBool("consistent")

		item, err := st.Get(ctx, e, key, store.GetOptions{Attributes: attrs, ConsistentRead: consistent})
		if err != nil {
			return err
		}
		return writeOutput(cmd, item)
	}),
}

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Write an item, replacing any existing one",
	RunE: runStore(func(ctx context.Context, cmd *cobra.Command, st *store.Store, e *store.Entity) error {
		item, err := readInput(cmd)
		if err != nil {
			return err
		}
		written, err := st.Put(ctx, e, item, store.PutOptions{})
		if err != nil {
			return err
		}
		return writeOutput(cmd, written)
	}),
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Set the given attributes of an item",
	RunE: runStore(func(ctx context.Context, cmd *cobra.Command, st *store.Store, e *store.Entity) error {
		item, err := readInput(cmd)
		if err != nil {
			return err
		}
		remove, _ := cmd.Flags().GetStringSlice("remove")

		updated, err := st.Update(ctx, e, item, store.UpdateOptions{Remove: remove})
		if err != nil {
			return err
		}
		return writeOutput(cmd, updated)
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Soft delete an item by key",
	RunE: runStore(func(ctx context.Context, cmd *cobra.Command, st *store.Store, e *store.Entity) error {
		key, err := readInput(cmd)
		if err != nil {
			return err
		}
		hard, _ := cmd.Flags().GetBool("hard")
		return st.Delete(ctx, e, key, store.DeleteOptions{Hard: hard})
	}),
}

var queryCmd = &cobra.Command{
	Use:   "query <partition>",
	Short: "List the entity's items in a partition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, e, err := connect(cmd)
		if err != nil {
			return err
		}

		input := store.QueryInput{Partition: args[0]}
		input.PartitionAttribute, _ = cmd.Flags().GetString("partition-attribute")
		input.IndexName, _ = cmd.Flags().GetString("index")
		input.Attributes, _ = cmd.Flags().GetStringSlice("attributes")
		input.Limit, _ = cmd.Flags().GetInt32("limit")
		input.ConsistentRead, _ = cmd.Flags().GetBool("consistent")
		if reverse, _ := cmd.Flags().GetBool("reverse"); reverse {
			forward := false
			input.ScanIndexForward = &forward
		}

		items, err := st.Query(cmd.Context(), e, input)
		if err != nil {
			return err
		}
		return writeOutput(cmd, items)
	},
}

func init() {
	for _, c := range []*cobra.Command{getCmd, putCmd, updateCmd, deleteCmd, queryCmd} {
		c.Flags().String("table", "", "Override the table name from the schema definition")
		c.Flags().String("profile", "", "AWS shared config profile")
		c.Flags().String("endpoint", "", "DynamoDB endpoint, for example http://localhost:8000")
		c.Flags().String("ttl-attribute", "", "Stored name of the soft delete attribute")
		rootCmd.AddCommand(c)
	}

	getCmd.Flags().StringSliceP("attributes", "a", nil, "Only return these attribute paths")
	getCmd.Flags().Bool("consistent", false, "Use a strongly consistent read")

	updateCmd.Flags().StringSlice("remove", nil, "Attribute paths to remove")

	deleteCmd.Flags().Bool("hard", false, "Remove the item instead of setting its ttl")

	queryCmd.Flags().String("partition-attribute", "", "Attribute holding the partition value, when querying an index")
	queryCmd.Flags().String("index", "", "Secondary index to query")
	queryCmd.Flags().StringSliceP("attributes", "a", nil, "Only return these attribute paths")
	queryCmd.Flags().Int32("limit", 0, "Maximum number of items")
	queryCmd.Flags().Bool("consistent", false, "Use a strongly consistent read")
	queryCmd.Flags().Bool("reverse", false, "Return items in descending sort key order")
}
