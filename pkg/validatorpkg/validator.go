// Package validatorpkg provides the request schema validator shared by services and handlers.
package validatorpkg

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Exponent bounds of a PostgreSQL numeric: 131072 digits before the point, 16383 after.
const (
	MaxDecimalExponent = 131071
	MinDecimalExponent = -16383
)

// ValidDecimal validates whether the string field holds a decimal number the store can hold.
var ValidDecimal validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	exp := d.Exponent()

	return exp >= MinDecimalExponent && exp <= MaxDecimalExponent
}

// Register adds the custom rules to v.
func Register(v *validator.Validate) error {
	return v.RegisterValidation("decimal", ValidDecimal)
}

// New returns a validator with the custom rules registered.
func New() *validator.Validate {
	v := validator.New()

	// Registration only fails on an empty tag or a nil func.
	if err := Register(v); err != nil {
		panic(err)
	}

	return v
}

// FirstField returns the struct field name of the first failed rule in err.
func FirstField(err error) (string, bool) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve[0].Field(), true
	}

	return "", false
}
