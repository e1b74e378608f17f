package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// frequencyTolerance bounds how far index frequencies may sum away from 1.
const frequencyTolerance = 0.011

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(FrequencyDoc)
		if math.Abs(f.Below+f.Normal+f.Above-1) > frequencyTolerance {
			sl.ReportError(f.Below, "Below", "below", "sum1", "")
		}
	}, FrequencyDoc{})
	return v
}

// validateStruct runs the struct tags and flattens the failures into one error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s '%v' is invalid. must be %s", field, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "len":
		return fmt.Sprintf("%s must have exactly %s entries", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "sum1":
		return fmt.Sprintf("%s: below, normal and above must sum to 1", strings.TrimSuffix(field, ".Below"))
	default:
		return fmt.Sprintf("%s failed '%s' validation", field, fe.Tag())
	}
}
