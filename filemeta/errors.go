package filemeta

import "errors"

// Code classifies the outcome of a descriptor operation. The values are
// stable so the owning CLI can map them to process exit codes.
type Code int

const (
	CodeOK Code = iota
	CodeBadArgument
	CodeOverflow
	CodeIO
	CodeEndOfFile
	CodeAllocation
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeBadArgument:
		return "bad argument"
	case CodeOverflow:
		return "overflow"
	case CodeIO:
		return "i/o error"
	case CodeEndOfFile:
		return "end of file"
	case CodeAllocation:
		return "write failed"
	}
	return "unknown error"
}

// ExitCode returns the process exit status a CLI should use for this code.
func (c Code) ExitCode() int { return int(c) }

// Sentinels for errors.Is checks. Every *Error unwraps to the sentinel of
// its code.
var (
	ErrBadArgument = errors.New("bad argument")
	ErrOverflow    = errors.New("overflow")
	ErrIO          = errors.New("i/o error")
	ErrEndOfFile   = errors.New("end of file")
	ErrAllocation  = errors.New("write failed")
)

func (c Code) sentinel() error {
	switch c {
	case CodeBadArgument:
		return ErrBadArgument
	case CodeOverflow:
		return ErrOverflow
	case CodeIO:
		return ErrIO
	case CodeEndOfFile:
		return ErrEndOfFile
	case CodeAllocation:
		return ErrAllocation
	}
	return nil
}

// Error is a tagged descriptor failure: one of the codes above plus an
// optional human-readable detail and the underlying cause.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	var errs []error
	if s := e.Code.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func newError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

func wrapError(code Code, detail string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Cause: cause}
}

// CodeOf extracts the code from an error chain. Nil maps to CodeOK and
// errors that did not originate here map to CodeIO, the environmental
// catch-all.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeIO
}
