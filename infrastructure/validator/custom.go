package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var stimulusColors = []string{"RED", "GREEN", "BLUE", "WHITE", "NONE"}

var rppgMethods = []string{"GREEN", "CHROM", "POS"}

func validateStimulusColor(fl validator.FieldLevel) bool {
	value := strings.ToUpper(fl.Field().String())
	for _, c := range stimulusColors {
		if value == c {
			return true
		}
	}
	return false
}

func validateRPPGMethod(fl validator.FieldLevel) bool {
	value := strings.ToUpper(fl.Field().String())
	for _, m := range rppgMethods {
		if value == m {
			return true
		}
	}
	return false
}

func validateStruct(payload interface{}) *[]error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	errs := []error{}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs = append(errs, err)
		return &errs
	}
	for _, fieldErr := range validationErrs {
		errs = append(errs, fmt.Errorf("%s failed validation on rule %s", fieldErr.Field(), fieldErr.Tag()))
	}
	return &errs
}

func validateField(value any, rules string) error {
	return validate.Var(value, rules)
}
