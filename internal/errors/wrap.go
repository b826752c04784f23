package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper tags errors from one module/operation pair with a message
// that is safe to show users.
type ErrorWrapper struct {
	module    string
	operation string
}

// NewWrapper returns a wrapper for errors raised by operation in module.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// Wrap attaches userMessage to err. A nil err stays nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{Module: w.module, Operation: w.operation, Cause: err, UserMessage: userMessage}
}

// Wrapf is Wrap with a formatted message.
func (w *ErrorWrapper) Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(format, args...))
}

// WrappedError separates the internal cause from the user-facing message.
type WrappedError struct {
	Module      string // resolver, batch, cli, ...
	Operation   string // probe, download, bundle, ...
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error { return e.Cause }

// GetUserMessage returns the message to show a user for err.
func GetUserMessage(err error) string {
	var wrapped *WrappedError
	var validation *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &wrapped):
		return wrapped.UserMessage
	case errors.As(err, &validation):
		return validation.Message
	case IsDownloadBlocked(err):
		return MsgDownloadBlocked
	case IsNotFound(err):
		return MsgNotFound
	case IsNetwork(err):
		return MsgNetwork
	default:
		return err.Error()
	}
}
