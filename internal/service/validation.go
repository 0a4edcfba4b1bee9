package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

// seatValidations are the closed-enum tags used by seat request payloads.
var seatValidations = map[string]validator.Func{
	"plan": func(fl validator.FieldLevel) bool {
		_, err := models.ParsePlanType(fl.Field().String())
		return err == nil
	},
	"slot": func(fl validator.FieldLevel) bool {
		_, err := models.ParseSlotID(fl.Field().String())
		return err == nil
	},
	"duration": func(fl validator.FieldLevel) bool {
		return models.PlanDuration(fl.Field().Int()).Valid()
	},
	"payment_mode": func(fl validator.FieldLevel) bool {
		_, err := models.ParsePaymentMode(fl.Field().String())
		return err == nil
	},
}

func registerValidations(v *validator.Validate, funcs map[string]validator.Func) error {
	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation %q: %w", tag, err)
		}
	}
	return nil
}

// mustRegisterSeatValidations panics when a tag cannot be registered; request validation
// would otherwise silently skip it.
func mustRegisterSeatValidations(v *validator.Validate) {
	if err := registerValidations(v, seatValidations); err != nil {
		panic(err)
	}
}
