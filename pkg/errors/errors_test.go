package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "Without cause",
			err:  New(ErrCodeAlreadyClaimed, "already claimed"),
			want: "ALREADY_CLAIMED: already claimed",
		},
		{
			name: "With cause",
			err:  Wrap(fmt.Errorf("conn reset"), ErrCodeInternalError, "failed to claim"),
			want: "INTERNAL_ERROR: failed to claim (conn reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("claim: %w", New(ErrCodeSoldOut, "sold out"))

	if got := CodeOf(wrapped); got != ErrCodeSoldOut {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, ErrCodeSoldOut)
	}
	if got := CodeOf(stderrors.New("boom")); got != ErrCodeInternalError {
		t.Errorf("CodeOf(foreign) = %q, want %q", got, ErrCodeInternalError)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeAlreadyClaimed, "already claimed"))

	if !stderrors.Is(err, New(ErrCodeAlreadyClaimed, "")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New(ErrCodeSoldOut, "")) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestIsPrecondition(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "Self claim", err: New(ErrCodeSelfClaim, "x"), want: true},
		{name: "Insufficient funds", err: New(ErrCodeInsufficientFunds, "x"), want: true},
		{name: "Internal", err: Wrap(stderrors.New("db"), ErrCodeInternalError, "x"), want: false},
		{name: "Foreign", err: stderrors.New("db"), want: false},
		{name: "Nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPrecondition(tt.err); got != tt.want {
				t.Errorf("IsPrecondition() = %v, want %v", got, tt.want)
			}
		})
	}
}
