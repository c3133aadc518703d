package errors

import (
	stderrors "errors"
)

// Process exit codes for the command-line tools.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitMissingFile = 3
	ExitFormat      = 4
	ExitValidation  = 5
)

// ExitCode maps an error to the exit code of the CLI.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return ExitFailure
	}
	switch appErr.Type {
	case ErrTypeMissingFile:
		return ExitMissingFile
	case ErrTypeFormat:
		return ExitFormat
	case ErrTypeValidation:
		return ExitValidation
	case ErrTypeConfig:
		return ExitUsage
	default:
		return ExitFailure
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name errors keep them.
var (
	Is = stderrors.Is
	As = stderrors.As
)
