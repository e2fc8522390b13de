// internal/domain/validate.go
package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func init() {
	// Prices and totals are rendered as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks a request struct against its `validate` tags and converts the
// first failure into a ValidationError
func Validate(req interface{}) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return NewValidationError("", err.Error())
	}

	// Missing fields take precedence over out-of-range ones
	for _, fe := range fieldErrors {
		if fe.Tag() == "required" {
			return NewValidationError(fe.Field(), "Missing required fields")
		}
	}

	fe := fieldErrors[0]
	return NewValidationError(fe.Field(), "Invalid "+fe.Field())
}
