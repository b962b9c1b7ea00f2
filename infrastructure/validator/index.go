package validator

func init() {
	validate.RegisterValidation("stimulus_color", validateStimulusColor)
	validate.RegisterValidation("rppg_method", validateRPPGMethod)
}

type Validator struct{}

func (v *Validator) ValidateStruct(payload interface{}) *[]error {
	return validateStruct(payload)
}

func (v *Validator) ValidateValue(value any, rules string) error {
	return validateField(value, rules)
}

var ValidatorInstance = Validator{}
