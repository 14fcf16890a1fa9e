// Package failure normalizes anything a fetch can fail with into one error shape.
//
// UI-facing code passes every caught value through Normalize before it
// displays or logs it. Classification is explicit: a value is a network
// failure, a protocol failure, or unknown.
package failure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// UnknownMessage is the message carried by values that expose none of their own.
const UnknownMessage = "Unknown error occurred"

// Kind tags a normalized error.
type Kind int

const (
	// KindUnknown covers values with no recognizable failure shape.
	KindUnknown Kind = iota
	// KindNetwork covers connection, DNS and timeout failures.
	KindNetwork
	// KindProtocol covers HTTP status failures and errors reported by the server.
	KindProtocol
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindProtocol:
		return "ProtocolError"
	default:
		return "UnknownError"
	}
}

// Error is the canonical failure shape. Message is never empty.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int            // HTTP status, 0 when not applicable
	Code       string         // server error code, e.g. extensions.code
	Extensions map[string]any // passed through from the server payload
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the original error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// coder is implemented by errors that carry a server error code.
type coder interface {
	ErrorCode() string
}

type timeouter interface {
	Timeout() bool
}

// Classify decides which kind of failure value is.
func Classify(value any) Kind {
	switch v := value.(type) {
	case nil:
		return KindUnknown
	case *Error:
		return v.Kind
	case map[string]any:
		if messageOf(v) != "" {
			return KindProtocol
		}
		return KindUnknown
	case error:
		return classifyError(v)
	}
	return KindUnknown
}

func classifyError(err error) Kind {
	var sc statusCoder
	if errors.As(err, &sc) {
		return KindProtocol
	}
	var c coder
	if errors.As(err, &c) {
		return KindProtocol
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var to timeouter
	if errors.As(err, &to) {
		return KindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindNetwork
	}
	return KindUnknown
}

// Normalize converts value into an *Error.
//
// An *Error is returned as is. Other errors keep their message and are
// available through errors.Unwrap. A map carrying a non-empty "message"
// (the server error payload shape) is lifted with its extensions. Anything
// else becomes a KindUnknown error with UnknownMessage.
func Normalize(value any) *Error {
	switch v := value.(type) {
	case *Error:
		if v == nil {
			break
		}
		return withMessage(v)
	case map[string]any:
		msg := messageOf(v)
		if msg == "" {
			break
		}
		e := &Error{Kind: KindProtocol, Message: msg}
		if ext, ok := v["extensions"].(map[string]any); ok {
			e.Extensions = ext
			if code, ok := ext["code"].(string); ok {
				e.Code = code
			}
		}
		return e
	case error:
		if v == nil {
			break
		}
		return fromError(v)
	}
	return &Error{Kind: KindUnknown, Message: UnknownMessage}
}

func fromError(err error) *Error {
	var wrapped *Error
	if errors.As(err, &wrapped) && wrapped != nil {
		return withMessage(wrapped)
	}
	e := &Error{
		Kind:    classifyError(err),
		Message: safeMessage(err),
		cause:   err,
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		e.StatusCode = sc.StatusCode()
	}
	var c coder
	if errors.As(err, &c) {
		e.Code = c.ErrorCode()
	}
	if e.Message == "" {
		e.Message = UnknownMessage
	}
	return e
}

// withMessage returns e, or a copy of e carrying UnknownMessage when its
// message is empty. e is never modified.
func withMessage(e *Error) *Error {
	if e.Message != "" {
		return e
	}
	cp := *e
	cp.Message = UnknownMessage
	return &cp
}

// safeMessage guards against Error methods that panic on nil receivers.
func safeMessage(err error) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = ""
		}
	}()
	return err.Error()
}

func messageOf(m map[string]any) string {
	if s, ok := m["message"].(string); ok {
		return s
	}
	return ""
}

// IsUnauthenticated reports whether e means the current session is no longer trusted.
func IsUnauthenticated(e *Error) bool {
	if e == nil {
		return false
	}
	if e.StatusCode == 401 {
		return true
	}
	switch strings.ToUpper(e.Code) {
	case "UNAUTHENTICATED", "INVALID_SESSION":
		return true
	}
	return false
}

// Newf builds an error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return Normalize(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
