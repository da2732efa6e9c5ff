// Package validate adapts go-playground/validator tags into attribute
// validators.
//
//	schema.String().Validate(validate.Tag("email"))
//	schema.Number().Validate(validate.Tag("gte=0,lte=100"))
package validate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jacentio/ddbschema/schema"
)

var (
	defaultOnce sync.Once
	defaultV    *validator.Validate
)

func defaultValidator() *validator.Validate {
	defaultOnce.Do(func() {
		defaultV = validator.New(validator.WithRequiredStructEnabled())
	})
	return defaultV
}

// Tag returns a validator checking values against a validator tag using a
// shared validator.Validate.
func Tag(tag string) schema.ValidatorFunc {
	return With(defaultValidator(), tag)
}

// With is like Tag but uses v, for example one with custom validations
// registered.
func With(v *validator.Validate, tag string) schema.ValidatorFunc {
	return func(value any, _ *schema.Attribute) error {
		if err := v.Var(value, tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return &Error{Tag: verrs[0].Tag(), Param: verrs[0].Param(), err: err}
			}
			return fmt.Errorf("validate %q: %w", tag, err)
		}
		return nil
	}
}

// Error reports the first validator tag a value failed.
type Error struct {
	Tag   string
	Param string
	err   error
}

func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("failed on %s=%s", e.Tag, e.Param)
	}
	return "failed on " + e.Tag
}

func (e *Error) Unwrap() error { return e.err }
