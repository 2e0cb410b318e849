package models

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"collab-go/app/errs"

	"github.com/go-playground/validator/v10"
)

var (
	validate      = validator.New(validator.WithRequiredStructEnabled())
	handlePattern = regexp.MustCompile(`^\w{3,32}$`)
)

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// usernames must be mentionable as @handle
	_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
}

// Validate checks struct tags on v and reports the first failure as an
// *errs.ValidationError.
func Validate(v any) error {
	field, tag, err := FirstInvalid(v)
	if err != nil {
		return errs.Validation("", "%v", err)
	}
	if field == "" {
		return nil
	}
	return errs.Validation(field, "failed %q validation", tag)
}

// FirstInvalid returns the JSON path and tag of the first failing field of v,
// or an empty field when v is valid. Slices of structs are only descended
// into when their tag says dive.
func FirstInvalid(v any) (field, tag string, err error) {
	verr := validate.Struct(v)
	if verr == nil {
		return "", "", nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(verr, &fieldErrs) || len(fieldErrs) == 0 {
		return "", "", verr
	}
	fe := fieldErrs[0]
	// drop the struct type prefix, keep the json path
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return ns, fe.Tag(), nil
}
