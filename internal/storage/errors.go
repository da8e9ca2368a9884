package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a store failure. Everything except KindStorage is caused
// by the caller's input and maps to a client error at the API boundary;
// KindStorage is an I/O fault of the database itself.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindQuota
	KindNotFound
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindQuota:
		return "quota"
	case KindNotFound:
		return "not found"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Error is the classified failure returned by every store operation.
type Error struct {
	Kind  Kind
	Table string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Table, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification of err, or 0 if err is not a store error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsServerFault reports whether err should be treated as a server-side
// failure for logging and status mapping. Unclassified errors count as
// server faults.
func IsServerFault(err error) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	return k == 0 || k == KindStorage
}

func validationErr(table, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Table: table, Msg: fmt.Sprintf(format, args...)}
}

func quotaErr(table string, quota int) *Error {
	return &Error{Kind: KindQuota, Table: table, Msg: fmt.Sprintf("client quota of %d entities reached", quota)}
}

func notFoundErr(table, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Table: table, Msg: fmt.Sprintf(format, args...)}
}

func storageErr(table, op string, err error) *Error {
	return &Error{Kind: KindStorage, Table: table, Msg: op + " failed", Err: err}
}
