// Package validation runs go-playground/validator over request structs and
// reports the first failure as a user-facing ValidationError.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		_ = instance.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return instance
}

// Messages maps a struct field name to the message shown when it fails.
type Messages map[string]string

// Struct validates s. The first failing field is reported with its message
// from msgs, or a generic one.
func Struct(s interface{}, msgs Messages) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Internal(err)
	}
	field := verrs[0].Field()
	if msg, ok := msgs[field]; ok {
		return apperror.Validation(msg)
	}
	return apperror.Validation(fmt.Sprintf("Invalid %s", field))
}

// IsUsername reports whether s matches the username character set.
func IsUsername(s string) bool {
	return usernamePattern.MatchString(s)
}
