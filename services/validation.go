package services

import (
	"bytes"
	crmerrors "crm-realtime/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "This field may not be null."
	msgInteger  = "A valid integer is required."
	msgInvalid  = "Invalid value."
)

var validate = newValidator()

// newValidator panics when a custom tag cannot be registered: request structs
// use those tags and validating them unregistered panics anyway.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	for tag, fn := range customTags() {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	return v
}

func customTags() map[string]validator.Func {
	return map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"notnull": func(fl validator.FieldLevel) bool {
			raw, ok := fl.Field().Interface().(json.RawMessage)
			return ok && !isNull(raw)
		},
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// bind decodes the payload into a request struct and validates it.
// Failures come back as a *ValidationError keyed by json field names.
func bind[T any](payload []byte) (T, error) {
	var req T

	present := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &present); err != nil {
		return req, fmt.Errorf("%w: %v", crmerrors.ErrDecode, err)
	}

	verr := &crmerrors.ValidationError{}
	if err := json.Unmarshal(payload, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !stderrors.As(err, &typeErr) {
			return req, fmt.Errorf("%w: %v", crmerrors.ErrDecode, err)
		}
		verr.Add(typeErr.Field, typeMessage(typeErr))
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return req, err
		}
		for _, fe := range fieldErrs {
			field := fe.Field()
			if _, reported := verr.Fields[field]; reported {
				continue
			}
			raw, sent := present[field]
			verr.Add(field, fieldMessage(fe, sent && isNull(raw)))
		}
	}

	if len(verr.Fields) > 0 {
		return req, verr
	}
	return req, nil
}

func fieldMessage(fe validator.FieldError, null bool) string {
	switch fe.Tag() {
	case "required":
		if null {
			return msgNull
		}
		return msgRequired
	case "notnull":
		return msgNull
	case "notblank":
		return msgBlank
	case "gt", "gte", "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", minimum(fe))
	default:
		return msgInvalid
	}
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return "1"
	}
	return fe.Param()
}

func typeMessage(err *json.UnmarshalTypeError) string {
	switch err.Type.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return msgInteger
	case reflect.String:
		return "Not a valid string."
	default:
		return msgInvalid
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// invalidPK is the related-object message of an id that points to nothing.
func invalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
