package risk

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	MinAge          = 18
	MaxAge          = 100
	MaxPercent      = 100
	MinOpenAccounts = 1
	MaxOpenAccounts = 4

	reasonMissing    = "is required"
	reasonNegative   = "must not be negative"
	reasonUnselected = "must be selected"
	reasonOutOfRange = "is out of range"
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

func (e FieldError) String() string {
	return e.Field + " " + e.Reason
}

// ValidationError is returned when one or more required fields are missing,
// left at the placeholder, or out of range.
type ValidationError struct {
	Fields []FieldError `json:"fields" yaml:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invalid loan application: " + strings.Join(parts, ", ")
}

// Has reports whether the named field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

var (
	validate   = newValidator()
	fieldOrder = jsonFieldOrder(reflect.TypeFor[LoanApplication]())
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}

func jsonFieldOrder(t reflect.Type) map[string]int {
	m := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		m[jsonName(t.Field(i))] = i
	}
	return m
}

// Valid reports whether the application can be scored.
func Valid(app *LoanApplication) bool {
	return Validate(app) == nil
}

// Validate checks that every field is set and within range. Zero numbers,
// empty enums and the placeholder all count as unset.
// It returns a *ValidationError naming all offending fields, or nil.
func Validate(app *LoanApplication) error {
	if app == nil {
		return &ValidationError{Fields: []FieldError{{Field: "application", Reason: reasonMissing}}}
	}

	var errs []FieldError

	if err := validate.Struct(app); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating loan application: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
		}
	}

	errs = appendAmountError(errs, "income", app.Income)
	errs = appendAmountError(errs, "loan_amount", app.LoanAmount)

	if len(errs) == 0 {
		return nil
	}
	slices.SortStableFunc(errs, func(a, b FieldError) int {
		return cmp.Compare(fieldOrder[a.Field], fieldOrder[b.Field])
	})
	return &ValidationError{Fields: errs}
}

func appendAmountError(errs []FieldError, field string, d decimal.Decimal) []FieldError {
	switch {
	case d.IsZero():
		return append(errs, FieldError{Field: field, Reason: reasonMissing})
	case d.IsNegative():
		return append(errs, FieldError{Field: field, Reason: reasonNegative})
	case !SaneAmount(d):
		return append(errs, FieldError{Field: field, Reason: reasonOutOfRange})
	}
	return errs
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return reasonUnselected
		}
		return reasonMissing
	case "oneof":
		v := fmt.Sprint(fe.Value())
		if v == Placeholder {
			return reasonUnselected
		}
		return fmt.Sprintf("has unknown value %q", v)
	case "min", "max":
		lo, hi := bounds(fe.StructField())
		if hi == "" {
			return reasonNegative
		}
		return fmt.Sprintf("must be between %s and %s", lo, hi)
	}
	return "is invalid"
}

// bounds reads the min and max parameters from the field's validate tag.
func bounds(structField string) (lo, hi string) {
	f, ok := reflect.TypeFor[LoanApplication]().FieldByName(structField)
	if !ok {
		return "", ""
	}
	for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
		if v, found := strings.CutPrefix(rule, "min="); found {
			lo = v
		}
		if v, found := strings.CutPrefix(rule, "max="); found {
			hi = v
		}
	}
	return lo, hi
}
