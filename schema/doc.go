// Package schema defines the attribute tree that drives parsing, formatting
// and expression building.
//
// Definitions are built with immutable Def values:
//
//	s := schema.MustNew(
//		schema.Attr("parentId", schema.String().Key().SavedAs("pk")),
//		schema.Attr("childId", schema.String().Key().SavedAs("sk")),
//		schema.Attr("tags", schema.SetOf(schema.String()).Optional()),
//	)
//
// Every builder method returns a new Def. New and Def.Freeze validate the
// tree, stamp each node with its path and return immutable attributes that
// are safe to share between goroutines.
//
// All errors raised by this module are *Error values. Use errors.Is with the
// Err sentinels to test for a code, or errors.As to read the path and
// payload.
package schema
