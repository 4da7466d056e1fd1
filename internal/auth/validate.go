// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// DefaultMinPasswordLength is the registration password policy.
const DefaultMinPasswordLength = 6

// Registration is the input to Service.Register.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"password_min,password_max"`
}

// Credentials is the input to Service.Login. Login does not apply the
// registration length policy.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FieldError describes a single rejected input field.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Value    any    `json:"value,omitempty"`
	Location string `json:"location,omitempty"`
}

// ValidationError lists every rejected field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Field messages, keyed by json field name and then by validation tag.
// The "" tag is the fallback for a field.
type fieldMessages map[string]map[string]string

const msgInvalidEmail = "Please include a valid email"

func registrationMessages(minPassword int) fieldMessages {
	return fieldMessages{
		"name":  {"": "Name is required"},
		"email": {"": msgInvalidEmail},
		"password": {
			"":             fmt.Sprintf("Please enter a password with %d or more characters", minPassword),
			"password_max": fmt.Sprintf("Password must not exceed %d bytes", MaxPasswordBytes),
		},
	}
}

var credentialMessages = fieldMessages{
	"email":    {"": msgInvalidEmail},
	"password": {"": "Password is required"},
}

// secretFields are never echoed back in a FieldError.
var secretFields = map[string]bool{"password": true}

// inputValidator checks request structs against their validate tags.
type inputValidator struct {
	validate     *validator.Validate
	registration fieldMessages
}

func newInputValidator(minPassword int) (*inputValidator, error) {
	if minPassword <= 0 {
		return nil, oops.Code("CONFIG_INVALID").
			With("min_password_length", minPassword).
			Errorf("minimum password length must be positive")
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("password_min", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) >= minPassword
	}); err != nil {
		return nil, oops.Code(CodeInternal).With("tag", "password_min").Wrap(err)
	}
	if err := v.RegisterValidation("password_max", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	}); err != nil {
		return nil, oops.Code(CodeInternal).With("tag", "password_max").Wrap(err)
	}

	return &inputValidator{
		validate:     v,
		registration: registrationMessages(minPassword),
	}, nil
}

// checkRegistration returns a VALIDATION_ERROR wrapping *ValidationError
// when any field is rejected.
func (iv *inputValidator) checkRegistration(in Registration) error {
	return iv.check(in, iv.registration)
}

func (iv *inputValidator) checkCredentials(in Credentials) error {
	return iv.check(in, credentialMessages)
}

func (iv *inputValidator) check(in any, messages fieldMessages) error {
	err := iv.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return oops.Code(CodeInternal).With("operation", "validate input").Wrap(err)
	}

	verr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		param := fe.Field()
		out := FieldError{
			Msg:      messageFor(messages, param, fe.Tag()),
			Param:    param,
			Location: "body",
		}
		if v := fe.Value(); !secretFields[param] && v != "" {
			out.Value = v
		}
		verr.Fields = append(verr.Fields, out)
	}
	return oops.Code(CodeValidation).Wrap(verr)
}

func messageFor(messages fieldMessages, field, tag string) string {
	byTag, ok := messages[field]
	if !ok {
		return "Invalid value"
	}
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	return byTag[""]
}
