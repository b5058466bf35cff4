// Package failure defines the error kinds shared by extraction and animation.
package failure

import (
	"fmt"
)

// Kind categorises a failure.
type Kind string

const (
	// KindParse means no diagram could be located in the markup. Never fatal.
	KindParse Kind = "PARSE_FAILURE"

	// KindHierarchyAmbiguous means explicit edges produced zero or several roots.
	KindHierarchyAmbiguous Kind = "HIERARCHY_AMBIGUOUS"

	// KindNodeNotFound means a step's node could not be located in the UI.
	KindNodeNotFound Kind = "NODE_NOT_FOUND"

	// KindDriver means a UI action failed after retries.
	KindDriver Kind = "DRIVER_FAILURE"

	// KindRecorder means frame capture or encoding failed.
	KindRecorder Kind = "RECORDER_FAILURE"
)

// Sentinels for errors.Is comparisons.
var (
	ErrParse              = &Error{Kind: KindParse}
	ErrHierarchyAmbiguous = &Error{Kind: KindHierarchyAmbiguous}
	ErrNodeNotFound       = &Error{Kind: KindNodeNotFound}
	ErrDriver             = &Error{Kind: KindDriver}
	ErrRecorder           = &Error{Kind: KindRecorder}
)

// Error carries a failure kind, the operation that failed and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// New creates a failure of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates a failure of the given kind around cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Op)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches any failure of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first failure in err's chain, or "".
func KindOf(err error) Kind {
	for err != nil {
		if f, ok := err.(*Error); ok {
			return f.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
