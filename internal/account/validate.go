package account

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON key
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// invalidFields validates s and returns the JSON keys of all failing fields.
func invalidFields(s any) ([]string, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	return lo.Uniq(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return fe.Field()
	})), nil
}

func validateUserUpdate(u *UserUpdate) error {
	fields, err := invalidFields(u)
	if err != nil {
		return err
	}
	if lo.Contains(fields, "email") {
		return errInvalidEmail()
	}
	if len(fields) > 0 {
		return errInvalidValue(fields...)
	}
	return nil
}

func validateThemeUpdate(u *ThemeUpdate) error {
	fields, err := invalidFields(u)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return errInvalidValue(fields...)
	}
	return nil
}

func validatePasswordChange(p *PasswordChange) error {
	fields, err := invalidFields(p)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return errMissingFields(fields...)
	}
	if p.NewPassword != p.ConfirmPassword {
		return errPasswordMismatch()
	}
	return nil
}
