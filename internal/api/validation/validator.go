// Package validation checks decoded request bodies and turns failures into
// per-field messages for the error envelope.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/auth"
	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/profile"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator wraps go-playground validator with the service's custom rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. Field names in errors use the json tag.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	v.RegisterValidation("boost_type", validateBoostType)
	v.RegisterValidation("api_role", validateAPIRole)
	v.RegisterValidation("tier_level", validateTierLevel)

	return &Validator{validate: v}
}

// Struct validates s and returns its field errors; an empty slice means valid.
func (v *Validator) Struct(s any) []FieldError {
	return FromError(v.validate.Struct(s))
}

// decimalValue lets numeric tags such as gt and lte apply to decimals.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func validateBoostType(fl validator.FieldLevel) bool {
	_, ok := boost.ParseType(fl.Field().String())
	return ok
}

func validateAPIRole(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	return role == auth.RoleAdmin || role == auth.RoleUser
}

func validateTierLevel(fl validator.FieldLevel) bool {
	tier := fl.Field().String()
	return tier == profile.TierOne || tier == profile.TierTwo
}

// FromError converts validator and domain validation errors into field
// errors. Other errors, including nil, yield nil.
func FromError(err error) []FieldError {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]FieldError, 0, len(ves))
		for _, fe := range ves {
			out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
		}
		return out
	}

	var ve *boost.ValidationError
	if errors.As(err, &ve) {
		return []FieldError{{Field: ve.Field, Message: fmt.Sprintf("%s %s", ve.Field, ve.Message)}}
	}

	return nil
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "uuid":
		return f + " must be a valid UUID"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "boost_type":
		return f + " must be one of tier_upgrade, seasonal, promotional, referral"
	case "api_role":
		return f + " must be one of admin, user"
	case "tier_level":
		return f + " must be one of tier_1, tier_2"
	default:
		return fmt.Sprintf("%s failed the %s check", f, fe.Tag())
	}
}
