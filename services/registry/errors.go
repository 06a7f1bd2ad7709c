package registry

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. None of them is ever fatal to the
// process; handlers map them onto transport-level responses.
const (
	CodeValidation      = "validation"
	CodeNotFound        = "notFound"
	CodeUnknownSession  = "unknownSession"
	CodeAlreadyBound    = "alreadyBound"
	CodePeerUnavailable = "peerUnavailable"
	CodePeerUnreachable = "peerUnreachable"
	CodeNotAMember      = "notAMember"
	CodeInternal        = "internal"
)

// Error is the registry's domain error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func NewErrorf(code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the registry error code, or CodeInternal for anything
// that is not a registry error.
func CodeOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given registry error code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
