package aggregates

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across entity kinds.
type ErrorCode string

const (
	CodeNotFound   ErrorCode = "not_found"
	CodeConflict   ErrorCode = "conflict"
	CodeBadRequest ErrorCode = "bad_request"
	CodeInternal   ErrorCode = "internal"
)

// Error is the canonical aggregate error wrapper.
//
// IDs carries the offending identifiers (missing references, duplicate ids) so callers
// can render an actionable reason without parsing Message.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	IDs     []string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// NotFound reports a missing root or relationship target.
func NotFound(op, kind, id string) error {
	return &Error{
		Code:    CodeNotFound,
		Op:      op,
		Message: fmt.Sprintf("%s %q not found", kind, id),
		IDs:     []string{id},
	}
}

// NotFoundMany reports several missing relationship targets at once.
func NotFoundMany(op, kind string, ids []string) error {
	ids = sortedCopy(ids)
	return &Error{
		Code:    CodeNotFound,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", kind, strings.Join(ids, ", ")),
		IDs:     ids,
	}
}

// Conflict reports a duplicate id or a forbidden duplicate relationship.
func Conflict(op, message string, ids ...string) error {
	return &Error{Code: CodeConflict, Op: op, Message: strings.TrimSpace(message), IDs: ids}
}

// BadRequest reports an invariant violation attributable to caller input.
func BadRequest(op, message string, ids ...string) error {
	return &Error{Code: CodeBadRequest, Op: op, Message: strings.TrimSpace(message), IDs: ids}
}

// Internal reports a store-level failure. The cause is kept for logs only.
func Internal(op string, cause error) error {
	msg := "internal error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Code: CodeInternal, Op: op, Message: msg, Cause: cause}
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// IDsOf returns the offending identifiers carried by err, if any.
func IDsOf(err error) []string {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return nil
	}
	return aggErr.IDs
}

// IsDomain reports whether err already carries a caller-facing classification.
func IsDomain(err error) bool {
	switch CodeOf(err) {
	case CodeNotFound, CodeConflict, CodeBadRequest:
		return true
	default:
		return false
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
