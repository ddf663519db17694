package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("validation: invalid input")

// FieldsError lists failed fields with the rule each one broke.
type FieldsError struct {
	Fields map[string]string
}

func (e *FieldsError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("validation: %s", strings.Join(parts, ", "))
}

func (e *FieldsError) Is(target error) bool {
	return target == ErrInvalid
}

// Validator checks `validate` struct tags on commands and queries.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return lowerFirst(f.Name)
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(ctx context.Context, message any) error {
	if message == nil {
		return nil
	}
	if reflect.Indirect(reflect.ValueOf(message)).Kind() != reflect.Struct {
		return nil
	}
	err := v.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := &FieldsError{Fields: make(map[string]string, len(fieldErrs))}
		for _, fe := range fieldErrs {
			out.Fields[fe.Field()] = describe(fe)
		}
		return out
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "is too long"
	}
	return "failed " + fe.Tag()
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
