package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/annotrack/internal/common"
)

// ValidationError carries the field errors of rejected input. It matches
// common.ErrorValidation under errors.Is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == common.ErrorValidation }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

func internal(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

// IsValidation reports whether err is a rejection of client input.
func IsValidation(err error) bool {
	return errors.Is(err, common.ErrorValidation)
}
