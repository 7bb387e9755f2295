// Package validation provides input validation utilities for streamkit.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// the usual choice for configuration structs.
//
// # Struct Tag Validation
//
//	type RelayRequest struct {
//	    Stream string `validate:"required,min=1"`
//	}
//	err := validation.Validate(req)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("stream", name).Min("buffer", size, 1)
//	err := v.Validate()
package validation
