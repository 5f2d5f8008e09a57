package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("password", strongPassword); err != nil {
		panic(err)
	}
	return v
}

// strongPassword requires a lowercase letter, an uppercase letter, a digit
// and a symbol.
func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit, symbol bool
	for _, c := range fl.Field().String() {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// validateRequest checks req against its validate tags and reports every
// failing field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(fmt.Errorf("validate request: %w", err))
	}

	issues := make([]apperr.Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, apperr.Issue{Field: fe.Field(), Message: issueMessage(fe)})
	}
	return apperr.InvalidInput("Invalid data provided", issues...)
}

func issueMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", capitalize(field))
	case "email":
		return "Invalid email"
	case "min":
		if fe.Param() == "1" {
			return fmt.Sprintf("%s is required", capitalize(field))
		}
		return fmt.Sprintf("Min %s length is %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("Max %s length is %s", field, fe.Param())
	case "eqfield":
		return "Password and confirmation must match"
	case "password":
		return "Password is not strong enough"
	case "gt":
		return fmt.Sprintf("Invalid %s", strings.ReplaceAll(field, "_", " "))
	default:
		return fmt.Sprintf("Invalid %s", field)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
