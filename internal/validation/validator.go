// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// codeValidation is the API error code every validation failure maps to.
const codeValidation = "VALIDATION_ERROR"

// shared is built on first use by GetValidator. validator.Validate caches
// struct metadata per type, so one instance for the whole process keeps
// repeated validation of the same request types cheap.
var shared = sync.OnceValue(newValidator)

// ValidationError describes one field that failed one rule.
//
// The field is reported by its JSON name, so the message matches what the
// client sent. Message holds the human readable sentence built by
// describe; Tag and Param identify the rule for clients that want to
// localize the text themselves.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the JSON name of the field that failed.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the rule that failed, e.g. "max" or "distinct_endpoints".
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the rule parameter, e.g. "100" for "max=100", or "".
func (e *ValidationError) Param() string { return e.param }

// Value returns the rejected value as the validator saw it.
func (e *ValidationError) Value() interface{} { return e.value }

// Error returns the human readable message.
func (e *ValidationError) Error() string { return e.message }

// RequestValidationError is returned by ValidateStruct and holds every
// failure found in one struct, in the order the validator reported them.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual failures. The slice is shared with the
// error and must not be modified.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error joins the messages of every failure with "; ".
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	for i := range ve.errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ve.errors[i].message)
	}
	return b.String()
}

// APIError mirrors the body of an API error response. It is declared here
// so that validation does not depend on the api package, which imports it.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError shapes the failures as a VALIDATION_ERROR response body.
//
// A single failure is reported directly: its message becomes the response
// message and the details carry field, tag and the rejected value. With
// several failures each message is prefixed by its field name, the
// messages are joined with "; " and the details list every field with its
// tag and message. Rejected values are left out of the multi-field form so
// large bodies do not get echoed back.
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: codeValidation, Message: "Validation failed"}
	case 1:
		only := ve.errors[0]
		return &APIError{
			Code:    codeValidation,
			Message: only.message,
			Details: map[string]interface{}{"field": only.field, "tag": only.tag, "value": only.value},
		}
	}

	fields := make([]map[string]interface{}, 0, len(ve.errors))
	parts := make([]string, 0, len(ve.errors))
	for _, fe := range ve.errors {
		fields = append(fields, map[string]interface{}{"field": fe.field, "tag": fe.tag, "message": fe.message})
		parts = append(parts, fe.field+": "+fe.message)
	}
	return &APIError{
		Code:    codeValidation,
		Message: strings.Join(parts, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the process-wide validator.
//
// It is created with WithRequiredStructEnabled, reports fields by their
// JSON names and has the SafeFlow rules registered. Callers normally use
// ValidateStruct; the instance is exposed for tests and for code that
// needs validator features ValidateStruct does not wrap.
func GetValidator() *validator.Validate {
	return shared()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("distinct_endpoints", distinctEndpoints); err != nil {
		panic(fmt.Sprintf("register distinct_endpoints: %v", err))
	}
	return v
}

// jsonFieldName names a field by its json tag. Untagged fields keep their
// Go name and fields tagged "-" are reported with an empty name.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// distinctEndpoints implements the distinct_endpoints rule.
//
// The tag sits on one coordinate field, but the rule needs all four, so it
// reads X1, Y1, X2 and Y2 from the parent struct. A parent without those
// integer fields fails the rule rather than passing silently, which turns
// a misplaced tag into a visible error.
func distinctEndpoints(fl validator.FieldLevel) bool {
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return false
	}

	var c [4]int64
	for i, name := range [...]string{"X1", "Y1", "X2", "Y2"} {
		f := parent.FieldByName(name)
		if !f.IsValid() || !f.CanInt() {
			return false
		}
		c[i] = f.Int()
	}
	return c[0] != c[2] || c[1] != c[3]
}

// ValidateStruct checks s against its validate tags and returns nil when
// every rule passes.
//
// s should be a pointer to a struct. Errors that are not field failures,
// such as passing a non-struct, are reported as a single failure on the
// field "unknown" so callers always get a RequestValidationError back.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: describe(fe),
		})
	}
	return &RequestValidationError{errors: out}
}
