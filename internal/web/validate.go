package web

import "github.com/crombie/crombieversario/pkg/validator"

// ValidationErrors lists field failures; it renders as error.details.
type ValidationErrors = validator.ValidationErrors

// Validate runs struct validation on v. Rule failures come back as
// ValidationErrors with a nil error.
func Validate(v any) (ValidationErrors, error) {
	err := validator.ValidateStruct(v)
	if err == nil {
		return nil, nil
	}
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		return verrs, nil
	}
	return nil, err
}
