package errors

import "errors"

var (
	ErrBuildFailed      = errors.New("image build failed")
	ErrShellFailed      = errors.New("shell session failed")
	ErrRuntimeFailed    = errors.New("container runtime unavailable")
	ErrUserLookupFailed = errors.New("user id resolution failed")
	ErrWorkdirFailed    = errors.New("working directory unavailable")
)

type RiffDocError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *RiffDocError) Error() string {
	return e.OriginalErr.Error()
}

func (e *RiffDocError) Unwrap() error {
	return e.OriginalErr
}

func NewRiffDocError(errorType error, context, cause, suggestion string, originalErr error) *RiffDocError {
	return &RiffDocError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewBuildError(context, cause, suggestion string, originalErr error) *RiffDocError {
	return NewRiffDocError(ErrBuildFailed, context, cause, suggestion, originalErr)
}

func NewShellError(context, cause, suggestion string, originalErr error) *RiffDocError {
	return NewRiffDocError(ErrShellFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *RiffDocError {
	return NewRiffDocError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewUserLookupError(context, cause, suggestion string, originalErr error) *RiffDocError {
	return NewRiffDocError(ErrUserLookupFailed, context, cause, suggestion, originalErr)
}

func NewWorkdirError(context, cause, suggestion string, originalErr error) *RiffDocError {
	return NewRiffDocError(ErrWorkdirFailed, context, cause, suggestion, originalErr)
}
