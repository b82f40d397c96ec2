package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "release %s missing", "v1.2.0")
	if err.Code != ErrCodeNotFound {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeNotFound)
	}
	want := "NOT_FOUND: release v1.2.0 missing"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetching %s", "releases")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause with errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestIs(t *testing.T) {
	inner := New(ErrCodeRateLimited, "secondary rate limit")
	outer := Wrap(ErrCodeNetwork, inner, "request failed")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"outer code", outer, ErrCodeNetwork, true},
		{"inner code", outer, ErrCodeRateLimited, true},
		{"absent code", outer, ErrCodeNotFound, false},
		{"plain error", stderrors.New("boom"), ErrCodeNetwork, false},
		{"nil", nil, ErrCodeNetwork, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(ErrCodeParse, "bad json"))
	if got := CodeOf(err); got != ErrCodeParse {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodeParse)
	}
	if got := CodeOf(stderrors.New("plain")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %s, want %s", got, ErrCodeInternal)
	}
}
