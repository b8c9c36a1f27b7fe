package app

import "errors"

const (
	codeFailure = 1
	// codeConfig is returned when the data file or environment is invalid.
	codeConfig = 2
)

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func ExitWithError(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

func asExitError(err error) (ExitError, bool) {
	var ee ExitError
	if err == nil || !errors.As(err, &ee) {
		return ExitError{}, false
	}
	return ee, true
}
