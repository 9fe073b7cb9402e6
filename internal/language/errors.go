package language

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks a language configuration entry that cannot be
// registered. The registry skips such entries instead of failing the load.
var ErrInvalidConfig = errors.New("invalid language config")

func errEmptyField(field string) error {
	return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, field)
}

func errBadTemplate(field string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s template: %v", ErrInvalidConfig, field, err)
	}
	return fmt.Errorf("%w: %s template is empty after tokenizing", ErrInvalidConfig, field)
}
