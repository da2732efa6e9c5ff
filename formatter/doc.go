// Package formatter turns stored values back into their user facing form.
//
// Formatting is the inverse of parsing: attributes are read under their
// stored names and returned under their declared names, transformers are
// decoded, enums are checked and hidden attributes are always dropped. An
// optional projection restricts the output to a set of attribute paths.
package formatter
