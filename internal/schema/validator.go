// Package schema decodes remote payloads and checks them against their declared shapes.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/wayfinder/internal/models"
)

// Validator is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the shape rules for every remote response.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so paths match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterStructValidation(messageRules, models.Message{})

	return &Validator{validate: v}
}

// messageRules enforces that offers are only attached to assistant messages.
func messageRules(sl validator.StructLevel) {
	msg := sl.Current().Interface().(models.Message)
	if msg.Role != models.RoleAssistant && msg.Results != nil {
		sl.ReportError(msg.Results, "results", "Results", "assistant_only", "")
	}
}

// Decode unmarshals data into dst and validates it. dst must be a pointer to a struct.
// Any mismatch is returned as a *ValidationError; dst must not be used in that case.
func (v *Validator) Decode(data []byte, dst any) error {
	shape := shapeName(dst)

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return &ValidationError{Shape: shape, Rule: "expected a JSON object"}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Shape: shape, Path: typeErrorPath(data, typeErr), Rule: "type", Param: typeErr.Value}
		}
		return &ValidationError{Shape: shape, Rule: fmt.Sprintf("malformed JSON: %v", err)}
	}

	return v.Check(dst)
}

// typeErrorPath turns the dotted Field of a type error into an indexed path
// such as "messages[1].results[0].rating" by finding the offending value in data.
func typeErrorPath(data []byte, typeErr *json.UnmarshalTypeError) string {
	if typeErr.Field == "" {
		return ""
	}
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return typeErr.Field
	}
	kind, _, _ := strings.Cut(typeErr.Value, " ")
	if path, ok := locate(root, strings.Split(typeErr.Field, "."), kind, ""); ok {
		return path
	}
	return typeErr.Field
}

// locate walks segs through node, trying every array element, and returns the
// path of the first value whose JSON kind is kind.
func locate(node any, segs []string, kind, prefix string) (string, bool) {
	if len(segs) == 0 {
		if jsonKind(node) == kind {
			return prefix, true
		}
		if arr, ok := node.([]any); ok {
			for i, el := range arr {
				if path, ok := locate(el, nil, kind, fmt.Sprintf("%s[%d]", prefix, i)); ok {
					return path, true
				}
			}
		}
		return "", false
	}

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[segs[0]]
		if !ok {
			return "", false
		}
		next := segs[0]
		if prefix != "" {
			next = prefix + "." + segs[0]
		}
		return locate(child, segs[1:], kind, next)
	case []any:
		for i, el := range n {
			if path, ok := locate(el, segs, kind, fmt.Sprintf("%s[%d]", prefix, i)); ok {
				return path, true
			}
		}
	}
	return "", false
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "null"
	}
}

// Check validates an already-decoded value.
func (v *Validator) Check(value any) error {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Shape: shapeName(value),
			Path:  fieldPath(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		}
	}

	return &ValidationError{Shape: shapeName(value), Rule: err.Error()}
}

// fieldPath drops the leading struct type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func shapeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "payload"
	}
	return t.Name()
}
