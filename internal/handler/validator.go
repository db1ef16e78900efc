package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalidInput("invalid request")
	}

	// report the first failing field only
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return invalidInput("%s is required", fe.Field())
	case "email":
		return invalidInput("%s must be a valid email", fe.Field())
	case "min":
		return invalidInput("%s must be at least %s characters", fe.Field(), fe.Param())
	case "gt":
		return invalidInput("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return invalidInput("%s is invalid", fe.Field())
	}
}

// bindAndValidate is c.Bind followed by c.Validate with client-safe errors.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidInput("invalid request body")
	}
	return c.Validate(req)
}
