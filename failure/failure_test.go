package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) StatusCode() int { return e.code }

type emptyErr struct{}

func (emptyErr) Error() string { return "" }

type nilPanicErr struct{ msg *string }

func (e *nilPanicErr) Error() string { return *e.msg }

func TestNormalizeIsIdempotent(t *testing.T) {
	e := &Error{Kind: KindProtocol, Message: "boom"}
	if got := Normalize(e); got != e {
		t.Fatal("Normalize should return the same *Error")
	}
	if got := Normalize(Normalize(e)); got != e {
		t.Fatal("Normalize should be idempotent")
	}
}

func TestNormalizeLeavesCallerErrorUntouched(t *testing.T) {
	e := &Error{Kind: KindProtocol, StatusCode: 502}
	got := Normalize(e)
	if got.Message != UnknownMessage {
		t.Fatalf("Expected fallback message, got %q", got.Message)
	}
	if e.Message != "" {
		t.Fatalf("Caller's error was modified: %q", e.Message)
	}
	if got.Kind != KindProtocol || got.StatusCode != 502 {
		t.Fatalf("Expected kind and status kept, got %+v", got)
	}
	if Normalize(got) != got {
		t.Fatal("Normalize should return a filled *Error as is")
	}

	wrapped := fmt.Errorf("upstream: %w", e)
	if got := Normalize(wrapped); got.Message != UnknownMessage || e.Message != "" {
		t.Fatalf("Expected wrapped empty error filled on a copy, got %q (original %q)", got.Message, e.Message)
	}
}

func TestNormalizeUnknownValues(t *testing.T) {
	values := []any{42, nil, "plain string", struct{}{}, []string{"message"}, map[string]any{"code": 1}, emptyErr{}, (*Error)(nil)}
	for _, v := range values {
		got := Normalize(v)
		if got == nil {
			t.Fatalf("Normalize(%#v) returned nil", v)
		}
		if got.Message != UnknownMessage {
			t.Errorf("Normalize(%#v).Message = %q, want %q", v, got.Message, UnknownMessage)
		}
	}
	if Normalize(42).Kind != KindUnknown {
		t.Error("numbers should normalize to KindUnknown")
	}
}

func TestNormalizeKeepsErrorMessage(t *testing.T) {
	cause := errors.New("something broke")
	got := Normalize(cause)
	if got.Message != "something broke" {
		t.Fatalf("Expected message to be preserved, got %q", got.Message)
	}
	if !errors.Is(got, cause) {
		t.Fatal("Normalized error should unwrap to its cause")
	}
	if got.Kind != KindUnknown {
		t.Fatalf("Expected KindUnknown, got %v", got.Kind)
	}
}

func TestNormalizeMessageMap(t *testing.T) {
	payload := map[string]any{
		"message":    "Not authorized",
		"extensions": map[string]any{"code": "UNAUTHENTICATED"},
	}
	got := Normalize(payload)
	if got.Kind != KindProtocol {
		t.Fatalf("Expected KindProtocol, got %v", got.Kind)
	}
	if got.Message != "Not authorized" || got.Code != "UNAUTHENTICATED" {
		t.Fatalf("Unexpected normalized error: %+v", got)
	}
	if !IsUnauthenticated(got) {
		t.Fatal("UNAUTHENTICATED code should be detected")
	}
}

func TestNormalizeUnwrapsWrappedError(t *testing.T) {
	inner := &Error{Kind: KindNetwork, Message: "offline"}
	wrapped := fmt.Errorf("fetch users: %w", inner)
	if got := Normalize(wrapped); got != inner {
		t.Fatal("Normalize should return the wrapped *Error")
	}
}

func TestNormalizeNilPointerError(t *testing.T) {
	got := Normalize(&nilPanicErr{})
	if got.Message != UnknownMessage {
		t.Fatalf("Expected fallback message, got %q", got.Message)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil", nil, KindUnknown},
		{"int", 42, KindUnknown},
		{"plain error", errors.New("x"), KindUnknown},
		{"status", &statusErr{code: 500}, KindProtocol},
		{"wrapped status", fmt.Errorf("call: %w", &statusErr{code: 401}), KindProtocol},
		{"net op", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindNetwork},
		{"url", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("eof")}, KindNetwork},
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"message map", map[string]any{"message": "bad"}, KindProtocol},
		{"empty message map", map[string]any{"message": ""}, KindUnknown},
		{"normalized", &Error{Kind: KindNetwork, Message: "x"}, KindNetwork},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.value); got != test.want {
				t.Fatalf("Classify = %v, want %v", got, test.want)
			}
		})
	}
}

func TestNormalizeStatusCode(t *testing.T) {
	got := Normalize(&statusErr{code: 401})
	if got.StatusCode != 401 {
		t.Fatalf("Expected status 401, got %d", got.StatusCode)
	}
	if !IsUnauthenticated(got) {
		t.Fatal("401 should be unauthenticated")
	}
	if IsUnauthenticated(Normalize(&statusErr{code: 500})) {
		t.Fatal("500 should not be unauthenticated")
	}
	if IsUnauthenticated(nil) {
		t.Fatal("nil should not be unauthenticated")
	}
}

func TestKindString(t *testing.T) {
	if KindNetwork.String() != "NetworkError" || KindProtocol.String() != "ProtocolError" || KindUnknown.String() != "UnknownError" {
		t.Fatal("Unexpected kind names")
	}
}

func TestNewf(t *testing.T) {
	e := Newf(KindProtocol, "status %d", 502)
	if e.Message != "status 502" || e.Kind != KindProtocol {
		t.Fatalf("Unexpected error: %+v", e)
	}
}
