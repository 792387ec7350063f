package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(SanitizePhone(fl.Field().String()))
	}); err != nil {
		panic(err)
	}
}

// Validate struct fields. Returns field name (json) -> failed tag, or nil.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string)
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// SanitizePhone drops every whitespace character.
func SanitizePhone(s string) string {
	return strings.Join(strings.Fields(s), "")
}
