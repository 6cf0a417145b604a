package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	aliasPattern  = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("plugin_alias", func(fl validator.FieldLevel) bool {
			return aliasPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return forgeerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	aliases := make(map[string]int, len(cfg.Plugins.Libraries))
	for i, lib := range cfg.Plugins.Libraries {
		if lib.Alias == "" {
			continue
		}
		if prev, exists := aliases[lib.Alias]; exists {
			return forgeerrors.NewValidationError(
				fmt.Sprintf("plugins.libraries[%d].alias", i),
				fmt.Sprintf("alias %q already used by libraries[%d]", lib.Alias, prev), nil)
		}
		aliases[lib.Alias] = i
	}

	return nil
}

func convertValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if ok := asValidationErrors(err, &fieldErrs); !ok || len(fieldErrs) == 0 {
		return forgeerrors.NewValidationError("config", err.Error(), err)
	}

	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	return forgeerrors.NewValidationError(strings.ToLower(field),
		fmt.Sprintf("failed %q constraint", fe.Tag()), err)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}
