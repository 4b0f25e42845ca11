// Zaparoo FairLock
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo FairLock.
//
// Zaparoo FairLock is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo FairLock is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo FairLock.  If not, see <http://www.gnu.org/licenses/>.

package inspect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/fairlock"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError wraps validation errors with formatted messages.
type ValidationError struct {
	Fields []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Value   any
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{
		Fields: make([]FieldError, len(errs)),
	}
	for i, fe := range errs {
		field := strings.ToLower(fe.Field())
		msg := fmt.Sprintf("%s failed %q validation", field, fe.Tag())
		if fe.Tag() == "required" {
			msg = field + " is required"
		}
		ve.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: msg,
		}
	}
	return ve
}

// Decode reads a T from tr and wraps it in a new FairLock. Struct values are
// checked against their validate tags first.
func Decode[T any](tr Tracker, opts ...fairlock.Option) (*fairlock.FairLock[T], error) {
	var v T
	if err := tr.Decode(&v); err != nil {
		return nil, err
	}

	if err := validateValue(&v); err != nil {
		return nil, err
	}

	return fairlock.New(v, opts...), nil
}

func validateValue(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(rv.Interface())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return newValidationError(verrs)
	}
	return fmt.Errorf("failed to validate value: %w", err)
}
