package schema

import "fmt"

// Code is a machine readable error identifier.
type Code string

const (
	CodeInvalidItem            Code = "parsing.invalidItem"
	CodeAttributeRequired      Code = "parsing.attributeRequired"
	CodeInvalidAttributeInput  Code = "parsing.invalidAttributeInput"
	CodeCustomValidationFailed Code = "parsing.customValidationFailed"

	CodeFormatterInvalidItem Code = "formatter.invalidItem"
	CodeInvalidAttribute     Code = "formatter.invalidAttribute"
	CodeMissingAttribute     Code = "formatter.missingAttribute"

	CodeInvalidExpressionAttributePath Code = "actions.invalidExpressionAttributePath"
	CodeInvalidCondition               Code = "actions.invalidCondition"

	CodeDuplicateAttributeNames Code = "schema.duplicateAttributeNames"
	CodeDuplicateSavedAs        Code = "schema.duplicateSavedAs"
	CodeInvalidAttributeName    Code = "schema.invalidAttributeName"
	CodeInvalidElements         Code = "schema.invalidElements"
	CodeInvalidEnum             Code = "schema.invalidEnum"
	CodeInvalidDefinition       Code = "schema.invalidAttribute"

	CodeReservedAttributeName    Code = "entity.reservedAttributeName"
	CodeReservedAttributeSavedAs Code = "entity.reservedAttributeSavedAs"
)

// Payload carries the structured details of an Error.
type Payload struct {
	// Received is the offending value.
	Received any

	// Expected describes the expected type, shape or enumeration.
	Expected any

	// ValidationResult is what a custom validator reported.
	ValidationResult error

	// Alternatives holds the error of every anyOf alternative that was tried.
	Alternatives []error
}

// Error is the single error type raised by schema construction, parsing,
// formatting and expression building.
type Error struct {
	Code    Code
	Path    string
	Message string
	Payload Payload
}

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidItem                    = &Error{Code: CodeInvalidItem, Message: "invalid item"}
	ErrAttributeRequired              = &Error{Code: CodeAttributeRequired, Message: "attribute required"}
	ErrInvalidAttributeInput          = &Error{Code: CodeInvalidAttributeInput, Message: "invalid attribute input"}
	ErrCustomValidationFailed         = &Error{Code: CodeCustomValidationFailed, Message: "custom validation failed"}
	ErrFormatterInvalidItem           = &Error{Code: CodeFormatterInvalidItem, Message: "invalid item"}
	ErrInvalidAttribute               = &Error{Code: CodeInvalidAttribute, Message: "invalid attribute"}
	ErrMissingAttribute               = &Error{Code: CodeMissingAttribute, Message: "missing attribute"}
	ErrInvalidExpressionAttributePath = &Error{Code: CodeInvalidExpressionAttributePath, Message: "invalid expression attribute path"}
	ErrInvalidCondition               = &Error{Code: CodeInvalidCondition, Message: "invalid condition"}
	ErrDuplicateAttributeNames        = &Error{Code: CodeDuplicateAttributeNames, Message: "duplicate attribute names"}
	ErrDuplicateSavedAs               = &Error{Code: CodeDuplicateSavedAs, Message: "duplicate savedAs"}
	ErrInvalidAttributeName           = &Error{Code: CodeInvalidAttributeName, Message: "invalid attribute name"}
	ErrInvalidElements                = &Error{Code: CodeInvalidElements, Message: "invalid elements"}
	ErrInvalidEnum                    = &Error{Code: CodeInvalidEnum, Message: "invalid enum"}
	ErrInvalidDefinition              = &Error{Code: CodeInvalidDefinition, Message: "invalid attribute definition"}
	ErrReservedAttributeName          = &Error{Code: CodeReservedAttributeName, Message: "reserved attribute name"}
	ErrReservedAttributeSavedAs       = &Error{Code: CodeReservedAttributeSavedAs, Message: "reserved attribute savedAs"}
)

// NewError builds an Error. The message is formatted with args.
func NewError(code Code, path string, payload Payload, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Payload: payload,
	}
}

func (e *Error) Error() string {
	return "ddbschema: " + e.Message
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Unwrap exposes the error returned by a custom validator.
func (e *Error) Unwrap() error {
	return e.Payload.ValidationResult
}

// At renders the ": 'path'" suffix used in messages, or nothing for an
// empty path.
func At(path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf(": '%s'", path)
}
