package main

import (
	"errors"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/infrastructure/loader"
	"github.com/iota-uz/orgplan/modules/org/services"
	territory "github.com/iota-uz/orgplan/modules/territory/services"
	"github.com/iota-uz/orgplan/pkg/apportion"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitIO         = 4
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	if isValidation(err) {
		return exitValidation
	}
	return 1
}

// isValidation reports whether err is a domain rejection rather than an
// environment failure.
func isValidation(err error) bool {
	for _, target := range []error{
		services.ErrNodeNotFound,
		services.ErrDerivedField,
		services.ErrInvalidInput,
		territory.ErrInvalidInput,
		apportion.ErrInvalidInput,
		loader.ErrEmptyDocument,
		orgtree.ErrEmptyTree,
		orgtree.ErrEmptyNodeID,
		orgtree.ErrNilChild,
		orgtree.ErrDuplicateNodeID,
		orgtree.ErrNegativeHeadcount,
		orgtree.ErrNegativeCapacity,
		orgtree.ErrUnknownRole,
		orgtree.ErrProfileMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
