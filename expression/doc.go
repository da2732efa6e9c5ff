// Package expression compiles attribute paths into DynamoDB expressions.
//
// A Resolver walks a path such as "list[1].name" through a schema and
// replaces every attribute name with a placeholder, so that reserved words
// and renamed attributes are handled uniformly:
//
//	r := expression.NewResolver(s.Root(), "c_")
//	p, _ := r.Resolve("list[1].name") // p.Expression == "#c_1[1].#c_2"
//	r.Names()                         // {"#c_1": "list", "#c_2": "name"}
//
// Conditions, projections and update expressions are built on top of the
// Resolver. Values compared in conditions are parsed against the attribute
// the path resolves to, so transformers and enums apply to them as well.
package expression
