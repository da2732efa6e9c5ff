// Package stream provides DynamoDB Streams handlers that hand formatted
// entity items to application code.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/codec"
	"github.com/jacentio/ddbschema/formatter"
	"github.com/jacentio/ddbschema/store"
)

// Change is a stream record resolved to a registered entity.
type Change struct {
	EventID   string
	EventName string
	Entity    *store.Entity

	// Keys is the primary key of the changed item.
	Keys map[string]types.AttributeValue

	// NewItem and OldItem are the formatted images, nil when the record
	// carries no such image.
	NewItem map[string]any
	OldItem map[string]any

	// SoftDeleted reports a MODIFY that set the TTL attribute.
	SoftDeleted bool
}

// HandlerFunc processes a single change.
type HandlerFunc func(ctx context.Context, change Change) error

// Handler processes DynamoDB stream events for registered entities.
type Handler struct {
	registry     *store.Registry
	fn           HandlerFunc
	logger       *slog.Logger
	ttlAttribute string
}

// NewHandler creates a new stream handler.
func NewHandler(registry *store.Registry, fn HandlerFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:     registry,
		fn:           fn,
		logger:       logger,
		ttlAttribute: "ttl",
	}
}

// SetTTLAttribute sets the stored name of the soft delete TTL attribute.
func (h *Handler) SetTTLAttribute(name string) {
	h.ttlAttribute = name
}

// Handle processes DynamoDB stream events. Records of unknown entities are
// skipped; the first failing record aborts the batch.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	newImage, err := decodeImage(record.Change.NewImage)
	if err != nil {
		return fmt.Errorf("new image: %w", err)
	}
	oldImage, err := decodeImage(record.Change.OldImage)
	if err != nil {
		return fmt.Errorf("old image: %w", err)
	}

	image := newImage
	if image == nil {
		image = oldImage
	}
	table := TableName(record.EventSourceArn)
	entity, ok := h.registry.Identify(table, image)
	if !ok {
		h.logger.Debug("skipping record of unknown entity",
			"eventID", record.EventID,
			"table", table,
		)
		return nil
	}

	keys, err := ConvertImage(record.Change.Keys)
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}

	change := Change{
		EventID:   record.EventID,
		EventName: record.EventName,
		Entity:    entity,
		Keys:      keys,
	}
	if newImage != nil {
		if change.NewItem, err = formatter.Format(entity.Schema(), newImage); err != nil {
			return fmt.Errorf("format new image: %w", err)
		}
	}
	if oldImage != nil {
		if change.OldItem, err = formatter.Format(entity.Schema(), oldImage); err != nil {
			return fmt.Errorf("format old image: %w", err)
		}
	}

	// Only a TTL that was absent/0 and is now present is a soft delete
	if record.EventName == string(events.DynamoDBOperationTypeModify) {
		oldTTL := getNumberAttr(record.Change.OldImage, h.ttlAttribute)
		newTTL := getNumberAttr(record.Change.NewImage, h.ttlAttribute)
		change.SoftDeleted = oldTTL == 0 && newTTL != 0
	}

	h.logger.Info("processing change",
		"eventID", record.EventID,
		"event", record.EventName,
		"entity", entity.Name(),
		"softDeleted", change.SoftDeleted,
	)
	return h.fn(ctx, change)
}

func decodeImage(image map[string]events.DynamoDBAttributeValue) (map[string]any, error) {
	if len(image) == 0 {
		return nil, nil
	}
	av, err := ConvertImage(image)
	if err != nil {
		return nil, err
	}
	return codec.UnmarshalItem(av)
}

// TableName extracts the table name from a stream ARN, or "" when the ARN
// doesn't name a table.
func TableName(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// ConvertImage converts a DynamoDB stream image or key to SDK attribute values.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		av, err := convert(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		result[k] = av
	}
	return result, nil
}

func convert(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, len(list))
		for i, item := range list {
			av, err := convert(item)
			if err != nil {
				return nil, err
			}
			out[i] = av
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	case events.DataTypeMap:
		m, err := ConvertImage(v.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	}
	return nil, fmt.Errorf("unsupported stream data type %d", v.DataType())
}
