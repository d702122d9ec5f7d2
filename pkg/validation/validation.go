package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "student-registry/pkg/errors"
)

// InvalidDataMessage is the only detail clients get for a rejected payload.
const InvalidDataMessage = "Invalid data, please check it again."

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// New returns a validator that reports fields by their JSON names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Configure(v)
	return v
}

// Configure makes v report fields by their JSON names and registers the
// bcryptlen rule, which limits a string to MaxPasswordBytes bytes. It is
// also applied to gin's binding engine so handler and usecase errors look
// the same.
func Configure(v *validator.Validate) {
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// ToError converts validator output into a *pkgerrors.ValidationError.
// Errors of any other kind are returned unchanged.
func ToError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]pkgerrors.FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = pkgerrors.FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	}
	return pkgerrors.NewValidationError(InvalidDataMessage, fields...)
}
