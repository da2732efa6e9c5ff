package expression

import (
	"strings"

	"github.com/jacentio/ddbschema/schema"
)

// ProjectionPrefix is the placeholder prefix of projection expressions.
const ProjectionPrefix = "p_"

// Projection compiles paths into a projection expression. Names are rendered
// as "#p_<n>".
func Projection(s *schema.Schema, paths ...string) (Expression, error) {
	r := NewResolver(s.Root(), ProjectionPrefix)
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		resolved, err := r.Resolve(p)
		if err != nil {
			return Expression{}, err
		}
		parts = append(parts, resolved.Expression)
	}
	return Expression{
		Expression: strings.Join(parts, ", "),
		Names:      r.Names(),
	}, nil
}
