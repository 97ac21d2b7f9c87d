package dtnsim

// errors.go holds the error type the simulator uses to report usage errors
// and broken invariants, and the helper that folds validation errors together

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCode classifies a SimError
type ErrCode int

const (
	ErrNotFound ErrCode = iota + 1
	ErrInvalidArgument
	ErrDuplicateEvent
	ErrCapacityOverflow
	ErrLimitingContact
	ErrAmbiguousSource
	ErrUnknownNode
)

var errCodeNames = map[ErrCode]string{
	ErrNotFound:         "not found",
	ErrInvalidArgument:  "invalid argument",
	ErrDuplicateEvent:   "duplicate event",
	ErrCapacityOverflow: "capacity overflow",
	ErrLimitingContact:  "missing limiting contact",
	ErrAmbiguousSource:  "ambiguous source",
	ErrUnknownNode:      "unknown node",
}

func (ec ErrCode) String() string {
	name, present := errCodeNames[ec]
	if !present {
		return fmt.Sprintf("code %d", int(ec))
	}
	return name
}

// SimError is returned (or, for broken invariants, panicked) by the simulator.
// Callers distinguish the cases with errors.As and the Code field.
type SimError struct {
	Code ErrCode
	Msg  string
}

func (se *SimError) Error() string {
	return se.Code.String() + ": " + se.Msg
}

func newSimError(code ErrCode, format string, args ...any) *SimError {
	return &SimError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err wraps a SimError carrying the given code
func HasCode(err error, code ErrCode) bool {
	var se *SimError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// ReportErrs transforms a list of errors and transforms them
// into a single error with the messages joined by ','. nil is
// returned when the list is empty.
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
		}
	}
	if len(errMsg) == 0 {
		return nil
	}
	return errors.New(strings.Join(errMsg, ","))
}
