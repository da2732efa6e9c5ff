package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/codec"
	"github.com/jacentio/ddbschema/expression"
	"github.com/jacentio/ddbschema/formatter"
	"github.com/jacentio/ddbschema/parser"
	"github.com/jacentio/ddbschema/schema"
)

// Placeholder ids of the conditions a single request can carry.
const (
	writeConditionID  = "w"
	keyConditionID    = "k"
	rangeConditionID  = "r"
	filterConditionID = "f"
	entityConditionID = "e"
)

// Client is the subset of *dynamodb.Client the Store uses.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store runs schema driven commands against DynamoDB.
type Store struct {
	client Client
	config Config
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

func (s *Store) logger() *slog.Logger { return s.config.Logger }

// PutOptions configures Put.
type PutOptions struct {
	// Condition must hold on the existing item for the put to succeed.
	Condition *expression.Condition
}

// Put parses item in put mode and writes it, replacing any existing item.
// It returns the written item as formatted output.
func (s *Store) Put(ctx context.Context, e *Entity, item any, opts PutOptions) (map[string]any, error) {
	start := time.Now()
	out, err := s.put(ctx, e, item, opts)
	s.config.Metrics.observe("put", e.name, start, err)
	return out, err
}

func (s *Store) put(ctx context.Context, e *Entity, item any, opts PutOptions) (map[string]any, error) {
	stored, err := parser.Parse(e.schema, item, parser.Mode(schema.ModePut))
	if err != nil {
		return nil, err
	}
	av, err := codec.MarshalItem(stored)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(e.table.Name),
		Item:      av,
	}
	if opts.Condition != nil {
		cond, err := expression.BuildCondition(e.schema, *opts.Condition, writeConditionID)
		if err != nil {
			return nil, err
		}
		input.ConditionExpression = aws.String(cond.Expression)
		input.ExpressionAttributeNames = names(cond.Names)
		input.ExpressionAttributeValues = values(cond.Values)
	}

	s.logger().Debug("put item", "entity", e.name, "table", e.table.Name)
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return nil, mapError(err)
	}
	return formatter.Format(e.schema, stored)
}

// GetOptions configures Get.
type GetOptions struct {
	// Attributes projects the returned item onto these paths.
	Attributes []string

	// ConsistentRead requests a strongly consistent read.
	ConsistentRead bool
}

// Get retrieves an item by key, returning ErrNotFound if soft deleted or missing.
func (s *Store) Get(ctx context.Context, e *Entity, key any, opts GetOptions) (map[string]any, error) {
	start := time.Now()
	out, err := s.get(ctx, e, key, opts)
	s.config.Metrics.observe("get", e.name, start, err)
	return out, err
}

func (s *Store) get(ctx context.Context, e *Entity, key any, opts GetOptions) (map[string]any, error) {
	k, err := s.key(e, key)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.GetItemInput{
		TableName:      aws.String(e.table.Name),
		Key:            k,
		ConsistentRead: aws.Bool(opts.ConsistentRead),
	}
	if len(opts.Attributes) > 0 {
		proj, err := s.projection(e, opts.Attributes)
		if err != nil {
			return nil, err
		}
		input.ProjectionExpression = aws.String(proj.Expression)
		input.ExpressionAttributeNames = names(proj.Names)
	}

	s.logger().Debug("get item", "entity", e.name, "table", e.table.Name)
	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}
	if result.Item == nil || IsDeleted(result.Item, s.config.TTLAttribute) {
		return nil, ErrNotFound
	}
	return s.format(e, result.Item, opts.Attributes)
}

// UpdateOptions configures Update.
type UpdateOptions struct {
	// Remove lists attribute paths to remove from the item.
	Remove []string

	// Condition must hold on the existing item for the update to succeed.
	Condition *expression.Condition
}

// Update parses item in update mode, sets every attribute it carries and
// removes the requested paths. Missing items are created; soft deleted items
// fail with ErrConditionFailed. It returns the updated item.
func (s *Store) Update(ctx context.Context, e *Entity, item any, opts UpdateOptions) (map[string]any, error) {
	start := time.Now()
	out, err := s.update(ctx, e, item, opts)
	s.config.Metrics.observe("update", e.name, start, err)
	return out, err
}

func (s *Store) update(ctx context.Context, e *Entity, item any, opts UpdateOptions) (map[string]any, error) {
	stored, err := parser.Parse(e.schema, item, parser.Mode(schema.ModeUpdate))
	if err != nil {
		return nil, err
	}
	k, err := s.keyOf(e, stored)
	if err != nil {
		return nil, err
	}
	upd, err := expression.BuildUpdate(e.schema, stored, opts.Remove...)
	if err != nil {
		return nil, err
	}

	conds := []expression.Expression{{
		Expression: "attribute_not_exists(" + ttlName + ")",
		Names:      map[string]string{ttlName: s.config.TTLAttribute},
	}}
	if opts.Condition != nil {
		cond, err := expression.BuildCondition(e.schema, *opts.Condition, writeConditionID)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	cond := and(conds...)
	cond.Merge(upd)

	s.logger().Debug("update item", "entity", e.name, "table", e.table.Name, "expression", upd.Expression)
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(e.table.Name),
		Key:                       k,
		UpdateExpression:          aws.String(upd.Expression),
		ConditionExpression:       aws.String(cond.Expression),
		ExpressionAttributeNames:  names(cond.Names),
		ExpressionAttributeValues: values(cond.Values),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, mapError(err)
	}
	// An upsert may create an item without every required attribute.
	return s.format(e, result.Attributes, nil, formatter.Partial())
}

// DeleteOptions configures delete behavior.
type DeleteOptions struct {
	// Hard removes the item instead of setting its TTL.
	Hard bool

	// Condition must hold on the existing item for the delete to succeed.
	Condition *expression.Condition
}

// Delete deletes an item by key. A soft delete sets the TTL attribute to now
// and is a no-op for missing or already deleted items unless a Condition is
// given, in which case those fail with ErrConditionFailed.
func (s *Store) Delete(ctx context.Context, e *Entity, key any, opts DeleteOptions) error {
	start := time.Now()
	err := s.delete(ctx, e, key, opts)
	s.config.Metrics.observe("delete", e.name, start, err)
	return err
}

func (s *Store) delete(ctx context.Context, e *Entity, key any, opts DeleteOptions) error {
	k, err := s.key(e, key)
	if err != nil {
		return err
	}

	var user expression.Expression
	if opts.Condition != nil {
		user, err = expression.BuildCondition(e.schema, *opts.Condition, writeConditionID)
		if err != nil {
			return err
		}
	}

	if opts.Hard {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(e.table.Name),
			Key:       k,
		}
		if user.Expression != "" {
			input.ConditionExpression = aws.String(user.Expression)
			input.ExpressionAttributeNames = names(user.Names)
			input.ExpressionAttributeValues = values(user.Values)
		}
		s.logger().Debug("delete item", "entity", e.name, "table", e.table.Name)
		_, err := s.client.DeleteItem(ctx, input)
		return mapError(err)
	}

	cond := and(expression.Expression{
		Expression: "attribute_exists(" + pkName + ") AND attribute_not_exists(" + ttlName + ")",
		Names:      map[string]string{pkName: e.table.PartitionKey.Name, ttlName: s.config.TTLAttribute},
	}, user)
	cond.Merge(expression.Expression{Values: map[string]types.AttributeValue{ttlNow: unixTime(time.Now())}})

	s.logger().Debug("soft delete item", "entity", e.name, "table", e.table.Name)
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(e.table.Name),
		Key:                       k,
		UpdateExpression:          aws.String("SET " + ttlName + " = " + ttlNow),
		ConditionExpression:       aws.String(cond.Expression),
		ExpressionAttributeNames:  names(cond.Names),
		ExpressionAttributeValues: values(cond.Values),
	})

	// Ignore condition failure - already deleted or never existed
	err = mapError(err)
	if errors.Is(err, ErrConditionFailed) && opts.Condition == nil {
		return nil
	}
	return err
}

// QueryInput defines parameters for querying items of one entity.
type QueryInput struct {
	// Partition is the partition key value, given as user input.
	Partition any

	// PartitionAttribute is the declared name of the attribute Partition
	// is matched against. Default: the attribute stored as the table's
	// partition key.
	PartitionAttribute string

	// Range is an optional sort key condition.
	Range *expression.Condition

	// IndexName is the optional GSI/LSI to query.
	IndexName string

	// Filter is an optional filter. TTL and entity filters are always merged in.
	Filter *expression.Condition

	// Attributes projects returned items onto these paths.
	Attributes []string

	// Limit is the maximum number of items to return (0 = no limit).
	Limit int32

	// ScanIndexForward determines sort order (true = ascending, false = descending).
	ScanIndexForward *bool

	// ConsistentRead requests strongly consistent reads.
	ConsistentRead bool
}

// Query returns the formatted items of e matching input, skipping soft
// deleted items and items written by other entities.
func (s *Store) Query(ctx context.Context, e *Entity, input QueryInput) ([]map[string]any, error) {
	start := time.Now()
	out, err := s.query(ctx, e, input)
	s.config.Metrics.observe("query", e.name, start, err)
	return out, err
}

func (s *Store) query(ctx context.Context, e *Entity, input QueryInput) ([]map[string]any, error) {
	partition := input.PartitionAttribute
	if partition == "" {
		partition = e.declared(e.table.PartitionKey.Name)
	}
	keyCond, err := expression.BuildCondition(e.schema,
		expression.Attr(partition).Eq(input.Partition), keyConditionID)
	if err != nil {
		return nil, err
	}
	if input.Range != nil {
		rangeCond, err := expression.BuildCondition(e.schema, *input.Range, rangeConditionID)
		if err != nil {
			return nil, err
		}
		// Key conditions don't take parentheses.
		keyCond.Expression += " AND " + rangeCond.Expression
		keyCond.Merge(rangeCond)
	}

	entityCond, err := expression.BuildCondition(e.schema,
		expression.Attr(e.declared(e.table.EntityAttributeSavedAs)).Eq(e.name), entityConditionID)
	if err != nil {
		return nil, err
	}
	filters := []expression.Expression{TTLFilter(s.config.TTLAttribute, time.Now()), entityCond}
	if input.Filter != nil {
		f, err := expression.BuildCondition(e.schema, *input.Filter, filterConditionID)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	filter := and(filters...)

	all := filter
	all.Merge(keyCond)

	queryInput := &dynamodb.QueryInput{
		TableName:              aws.String(e.table.Name),
		KeyConditionExpression: aws.String(keyCond.Expression),
		FilterExpression:       aws.String(filter.Expression),
		ConsistentRead:         aws.Bool(input.ConsistentRead),
	}
	if len(input.Attributes) > 0 {
		proj, err := s.projection(e, input.Attributes)
		if err != nil {
			return nil, err
		}
		queryInput.ProjectionExpression = aws.String(proj.Expression)
		all.Merge(proj)
	}
	queryInput.ExpressionAttributeNames = names(all.Names)
	queryInput.ExpressionAttributeValues = values(all.Values)

	if input.IndexName != "" {
		queryInput.IndexName = aws.String(input.IndexName)
	}
	if input.Limit > 0 {
		queryInput.Limit = aws.Int32(input.Limit)
	}
	if input.ScanIndexForward != nil {
		queryInput.ScanIndexForward = input.ScanIndexForward
	}

	s.logger().Debug("query items", "entity", e.name, "table", e.table.Name, "index", input.IndexName)

	// Paginate through all results
	var items []map[string]any
	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			item, err := s.format(e, raw, input.Attributes)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if input.Limit > 0 && int32(len(items)) >= input.Limit {
				return items, nil
			}
		}
	}

	return items, nil
}

// key parses input in key mode and builds the table's primary key from it.
func (s *Store) key(e *Entity, input any) (map[string]types.AttributeValue, error) {
	stored, err := parser.Parse(e.schema, input, parser.Mode(schema.ModeKey))
	if err != nil {
		return nil, err
	}
	return s.keyOf(e, stored)
}

// keyOf extracts the table's primary key from a parsed item.
func (s *Store) keyOf(e *Entity, stored map[string]any) (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue, 2)
	for _, k := range e.table.keys() {
		v, ok := stored[k.Name]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidKey, k.Name)
		}
		av, err := codec.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidKey, k.Name, err)
		}
		key[k.Name] = av
	}
	return key, nil
}

// projection compiles paths, always projecting the TTL attribute so soft
// deleted items can be recognised.
func (s *Store) projection(e *Entity, paths []string) (expression.Expression, error) {
	proj, err := expression.Projection(e.schema, paths...)
	if err != nil {
		return expression.Expression{}, err
	}
	proj.Expression += ", " + ttlName
	proj.Merge(expression.Expression{Names: map[string]string{ttlName: s.config.TTLAttribute}})
	return proj, nil
}

// format decodes and formats a stored item.
func (s *Store) format(e *Entity, raw map[string]types.AttributeValue, attributes []string, opts ...formatter.Option) (map[string]any, error) {
	item, err := codec.UnmarshalItem(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if len(attributes) > 0 {
		opts = append(opts, formatter.Attributes(attributes...))
	}
	return formatter.Format(e.schema, item, opts...)
}

// mapError maps DynamoDB condition failures to ErrConditionFailed.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}
