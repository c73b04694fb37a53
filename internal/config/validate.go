package config

import (
	stderrors "errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	perrors "github.com/stevehiehn/mlprov/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("key"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks that the mandatory parameters are present. The first
// problem found is returned as a *errors.RunError; field declaration order
// guarantees the source version is reported before anything else.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating configuration: %w", err)
	}

	fe := verrs[0]
	param := fe.Field()
	k, _ := lookupKey(param)
	if fe.Tag() == "required" {
		return perrors.NewMissingConfiguration(param,
			fmt.Sprintf("Set %s or pass --set %s=<value>", k.Env, param))
	}
	return perrors.NewInvalidConfiguration(param,
		fmt.Sprintf("parameter %q has invalid value %q (%s)", param, fe.Value(), fe.Tag()),
		"The package index must be an absolute URL, e.g. https://download.pytorch.org/whl/cu121 or file:///srv/wheels")
}
