// Package validate provides input validation helpers for the escape bot.
package validate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kipper0508/escape-bot/internal/errors"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates a struct's `validate` tags and reports the failed fields
// as a UserError.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return &errors.UserError{
		Message:    "invalid " + strings.Join(fields, ", "),
		Suggestion: "check the values and try again",
		Cause:      errors.ErrInvalidInput,
	}
}

// NonEmpty validates that a string is not blank.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserError(field+" cannot be empty", "provide a value for "+field)
	}
	return nil
}
