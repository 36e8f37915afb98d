package logfactory

import (
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var once sync.Once

func validatorInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// An empty level falls back to the default, so only non-empty values are checked.
		_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
			_, err := parseLevel(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

func validateConfig(cfg *Config) error {
	const op errors.Op = "logfactory.validateConfig"
	if cfg == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}

	return nil
}

func validateOptions(target any) error {
	const op errors.Op = "logfactory.validateOptions"

	if err := validatorInstance().Struct(target); err != nil {
		return errors.New(op).Err(err).Msg(errMsgOptionsInvalid)
	}

	return nil
}
