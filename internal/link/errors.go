package link

import (
	"context"
	"errors"
	"fmt"
)

// Transfer status codes. Every failure is negative; zero means success.
const (
	CodeOK       = 0
	CodeTimeout  = -1
	CodeTooLarge = -2
	CodeChecksum = -3
	CodeAborted  = -4
	CodeProtocol = -5
	CodeIO       = -6
)

var codeNames = map[int]string{
	CodeOK:       "ok",
	CodeTimeout:  "timeout",
	CodeTooLarge: "file too large",
	CodeChecksum: "checksum mismatch",
	CodeAborted:  "aborted",
	CodeProtocol: "protocol error",
	CodeIO:       "i/o error",
}

// CodeText returns a short description of a status code.
func CodeText(code int) string {
	if s, ok := codeNames[code]; ok {
		return s
	}
	return fmt.Sprintf("code %d", code)
}

// Error is a failed transfer.
type Error struct {
	Err  error
	Op   string // "receive" or "send"
	Code int
}

func (e *Error) Error() string {
	msg := "link " + e.Op + ": " + CodeText(e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the status code carried by err: 0 for nil, the code of a
// wrapped *Error, CodeTimeout or CodeAborted for context errors, and
// CodeIO for anything else.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeAborted
	}
	return CodeIO
}

func newError(op string, code int, err error) *Error {
	return &Error{Op: op, Code: code, Err: err}
}
