package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/expression"
)

const (
	ttlName = "#t_ttl"
	ttlNow  = ":t_now"
	pkName  = "#t_pk"
)

// IsDeleted checks if an item has an expired TTL (is marked for deletion).
func IsDeleted(item map[string]types.AttributeValue, attr string) bool {
	ttlAttr, exists := item[attr]
	if !exists {
		return false // No TTL = active
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= time.Now().Unix()
}

// TTLFilter returns the filter excluding items soft deleted before now.
// Placeholders use the "t_" prefix so the filter merges with schema
// expressions.
func TTLFilter(attr string, now time.Time) expression.Expression {
	return expression.Expression{
		Expression: "(attribute_not_exists(" + ttlName + ") OR " + ttlName + " > " + ttlNow + ")",
		Names:      map[string]string{ttlName: attr},
		Values:     map[string]types.AttributeValue{ttlNow: unixTime(now)},
	}
}

func unixTime(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}

// and joins expressions with AND, merging their placeholder tables. Empty
// expressions are skipped.
func and(exprs ...expression.Expression) expression.Expression {
	var out expression.Expression
	var parts []string
	for _, e := range exprs {
		if e.Expression == "" {
			continue
		}
		parts = append(parts, e.Expression)
		out.Merge(e)
	}
	switch len(parts) {
	case 0:
	case 1:
		out.Expression = parts[0]
	default:
		out.Expression = "(" + strings.Join(parts, ") AND (") + ")"
	}
	return out
}

func names(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func values(m map[string]types.AttributeValue) map[string]types.AttributeValue {
	if len(m) == 0 {
		return nil
	}
	return m
}
