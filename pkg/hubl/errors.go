package hubl

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure contained within a single expression.
type ErrorKind int

const (
	UnknownVariable ErrorKind = iota + 1
	InvalidLiteral
	MalformedFilterCall
	UnknownFilter
	FilterExecutionFailure
	UnsupportedAsyncFilter
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownVariable:
		return "unknown variable"
	case InvalidLiteral:
		return "invalid literal"
	case MalformedFilterCall:
		return "malformed filter call"
	case UnknownFilter:
		return "unknown filter"
	case FilterExecutionFailure:
		return "filter execution failure"
	case UnsupportedAsyncFilter:
		return "unsupported async filter"
	}
	return "unknown error"
}

// Error is returned by path resolution and expression evaluation. Subject is
// the offending segment, literal or filter name.
type Error struct {
	Kind    ErrorKind
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s %q", e.Kind, e.Subject)
}

func (e *Error) Unwrap() error { return e.Err }

// Marker returns the text substituted into the output in place of the
// failed expression.
func (e *Error) Marker() string {
	switch e.Kind {
	case UnknownVariable:
		return "[Error: Unknown variable or property: " + e.Subject + "]"
	case InvalidLiteral:
		return "[Error: Invalid value '" + e.Subject + "']"
	case MalformedFilterCall:
		return "[Error] Invalid filter: " + e.Subject
	case UnknownFilter:
		return "[Error] Unknown filter: " + e.Subject
	case FilterExecutionFailure:
		msg := e.Subject
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return "[Error] Filter failed: " + msg
	case UnsupportedAsyncFilter:
		return "[Error] Async filters not supported inline"
	}
	return "[Error] " + e.Error()
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// errUnsupportedKind is returned by filters that cannot handle a value.
func errUnsupportedKind(filter string, v Value) error {
	return fmt.Errorf("%s: unsupported value kind %s", filter, kindOf(v))
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}
