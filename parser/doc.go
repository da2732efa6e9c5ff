// Package parser converts caller input into storable values.
//
// Parsing runs in four stages: defaults are filled in, links are resolved
// against the defaulted item, the result is checked against the schema and
// custom validators, and finally attributes are renamed to their stored
// names and primitive transformers are applied. Each stage's output can be
// observed through a Parser; Parse and ParseAttribute run all of them.
//
// Values are never mutated in place. Every stage works on deep copies of its
// input.
package parser
