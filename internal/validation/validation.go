// Package validation checks contact form payloads, first structurally against a JSON Schema
// and then semantically with struct tags.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed contact.schema.json
var contactSchema []byte

const contactSchemaURL = "contact.schema.json"

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned for malformed or incomplete submissions.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "invalid payload"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// Malformed builds an Error for a body that could not be decoded at all.
func Malformed(reason string) *Error {
	return &Error{Fields: []FieldError{{Field: "body", Message: reason}}}
}

// ContactSchema validates raw request bodies.
type ContactSchema struct {
	schema *jsonschema.Schema
}

// NewContactSchema compiles the embedded contact schema.
func NewContactSchema() (*ContactSchema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(contactSchemaURL, bytes.NewReader(contactSchema)); err != nil {
		return nil, fmt.Errorf("load contact schema: %w", err)
	}
	schema, err := compiler.Compile(contactSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile contact schema: %w", err)
	}
	return &ContactSchema{schema: schema}, nil
}

// MustContactSchema is NewContactSchema for package initialisation; the schema is embedded.
func MustContactSchema() *ContactSchema {
	s, err := NewContactSchema()
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks that body is a JSON object whose required fields are present strings.
func (s *ContactSchema) Validate(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return Malformed("request body is empty")
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Malformed("request body is not valid JSON")
	}
	if dec.More() {
		return Malformed("request body has trailing data")
	}

	if err := s.schema.Validate(doc); err != nil {
		var schemaErr *jsonschema.ValidationError
		if errors.As(err, &schemaErr) {
			return &Error{Fields: collectSchemaErrors(schemaErr)}
		}
		return Malformed(err.Error())
	}
	return nil
}

func collectSchemaErrors(root *jsonschema.ValidationError) []FieldError {
	var fields []FieldError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			if field == "" {
				field = "body"
			}
			fields = append(fields, FieldError{Field: field, Message: e.Message})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(root)

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return fields
}

// NewValidator returns a struct validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FromValidator converts struct validation failures into an Error. Other errors are
// returned unchanged.
func FromValidator(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return &Error{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
