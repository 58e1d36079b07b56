// Package errs holds the error taxonomy shared by the parser, the schema store
// and the query executor.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindParse      Kind = "ParseError"
	KindSchema     Kind = "SchemaError"
	KindConstraint Kind = "ConstraintError"
	KindIO         Kind = "IOError"
	KindExec       Kind = "ExecError"
)

type Code string

const (
	// parse
	UnparsableValue    Code = "UnparsableValue"
	ArityError         Code = "ArityError"
	UnknownFunction    Code = "UnknownFunction"
	MissingTable       Code = "MissingTable"
	NotAQuery          Code = "NotAQuery"
	MalformedExtension Code = "MalformedExtension"
	UnsupportedAction  Code = "UnsupportedAction"
	UnknownExtension   Code = "UnknownExtension"
	InvalidIdentifier  Code = "InvalidIdentifier"
	TooManyArgs        Code = "TooManyArgs"
	InvalidDirection   Code = "InvalidDirection"
	NoOperatorFound    Code = "NoOperatorFound"

	// schema
	NoSuchTable        Code = "NoSuchTable"
	NoDatabaseSelected Code = "NoDatabaseSelected"
	NoSuchDatabase     Code = "NoSuchDatabase"
	NoSuchServer       Code = "NoSuchServer"
	DuplicateServer    Code = "DuplicateServer"
	DuplicateDatabase  Code = "DuplicateDatabase"
	DuplicateTable     Code = "DuplicateTable"
	DuplicateColumn    Code = "DuplicateColumn"
	UnsupportedType    Code = "UnsupportedType"
	InvalidLink        Code = "InvalidLink"
	InvalidSchema      Code = "InvalidSchema"
	UnknownColumn      Code = "UnknownColumn"

	// constraint
	DuplicateKey  Code = "DuplicateKey"
	NotNull       Code = "NotNull"
	ArityMismatch Code = "ArityMismatch"
	InvalidValue  Code = "InvalidValue"
	DuplicateUser Code = "DuplicateUser"
	NoSuchUser    Code = "NoSuchUser"

	// io
	ReadFailed  Code = "ReadFailed"
	WriteFailed Code = "WriteFailed"
	LockFailed  Code = "LockFailed"
)

// EngineError is the single error type surfaced by the engine.
type EngineError struct {
	Kind Kind
	Code Code
	Msg  string

	err error
}

func (e *EngineError) Error() string { return e.Msg }

func (e *EngineError) Unwrap() error { return e.err }

// Status maps the error to the closest HTTP status, for transports.
func (e *EngineError) Status() int {
	switch e.Kind {
	case KindParse:
		return http.StatusBadRequest
	case KindSchema:
		if e.Code == NoSuchTable || e.Code == NoSuchDatabase || e.Code == NoSuchServer {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case KindConstraint:
		if e.Code == DuplicateKey || e.Code == DuplicateUser {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, code Code, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Parse(code Code, format string, args ...any) *EngineError {
	return newError(KindParse, code, format, args...)
}

func Schema(code Code, format string, args ...any) *EngineError {
	return newError(KindSchema, code, format, args...)
}

func Constraint(code Code, format string, args ...any) *EngineError {
	return newError(KindConstraint, code, format, args...)
}

func Exec(code Code, format string, args ...any) *EngineError {
	return newError(KindExec, code, format, args...)
}

// IO wraps an underlying filesystem error.
func IO(code Code, err error, format string, args ...any) *EngineError {
	e := newError(KindIO, code, format, args...)
	e.Msg = fmt.Sprintf("%s: %v", e.Msg, err)
	e.err = err
	return e
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// KindOf returns the kind of err, or KindExec for foreign errors.
func KindOf(err error) Kind {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindExec
}

// StatusOf returns the status of err, or 500 for foreign errors.
func StatusOf(err error) int {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Status()
	}
	return http.StatusInternalServerError
}

// MultilineError reports the 1-based index of the failing statement in a
// multi-statement block.
type MultilineError struct {
	Index int
	Err   error
}

func (e *MultilineError) Error() string {
	return fmt.Sprintf("query %d: %v", e.Index, e.Err)
}

func (e *MultilineError) Unwrap() error { return e.Err }
