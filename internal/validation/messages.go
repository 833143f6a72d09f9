// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package validation

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// describe turns a field failure into the sentence returned to clients.
//
// Size rules read differently per kind: "at most 10 characters" for
// strings, "at most 2 items" for slices and maps, "at most 10" for
// numbers. Rules without a dedicated sentence fall back to
// "<field> failed <tag> validation".
func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "latitude":
		return field + " must be a valid latitude (-90 to 90)"
	case "longitude":
		return field + " must be a valid longitude (-180 to 180)"
	case "distinct_endpoints":
		return field + ": tripwire endpoints must differ"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "excludesall":
		return fmt.Sprintf("%s must not contain any of: %q", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		return fmt.Sprintf("%s must %s at least %s%s", field, sizeVerb(fe.Kind()), param, sizeUnit(fe.Kind()))
	case "max":
		return fmt.Sprintf("%s must %s at most %s%s", field, sizeVerb(fe.Kind()), param, sizeUnit(fe.Kind()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func sizeVerb(k reflect.Kind) string {
	switch k {
	case reflect.Slice, reflect.Array, reflect.Map:
		return "contain"
	default:
		return "be"
	}
}

func sizeUnit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
