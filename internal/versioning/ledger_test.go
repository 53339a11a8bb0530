package versioning

import (
	"errors"
	"strings"
	"testing"
)

func TestNextVersion(t *testing.T) {
	if got := NextVersion(1); got != 2 {
		t.Fatalf("NextVersion(1) = %d, want 2", got)
	}
	if got := NextVersion(41); got != 42 {
		t.Fatalf("NextVersion(41) = %d, want 42", got)
	}
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		name    string
		old     int
		new     int
		wantErr error
		reason  string
	}{
		{name: "increment by one", old: 5, new: 6},
		{name: "first version", old: 0, new: 1},
		{name: "no-op", old: 5, new: 5, wantErr: ErrInvalidTransition, reason: "must increase"},
		{name: "decrement", old: 5, new: 4, wantErr: ErrInvalidTransition, reason: "cannot decrement"},
		{name: "skip", old: 5, new: 7, wantErr: ErrInvalidTransition, reason: "must increment by 1"},
		{name: "negative current", old: -1, new: 0, wantErr: ErrInvalidTransition, reason: "negative"},
		{name: "overflow", old: MaxProfileVersion, new: MaxProfileVersion + 1, wantErr: ErrVersionOverflow},
		{name: "at cap", old: MaxProfileVersion - 1, new: MaxProfileVersion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.old, tc.new)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateTransition(%d, %d) = %v, want nil", tc.old, tc.new, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateTransition(%d, %d) = %v, want %v", tc.old, tc.new, err, tc.wantErr)
			}
			if tc.reason != "" && !strings.Contains(err.Error(), tc.reason) {
				t.Fatalf("error %q missing reason %q", err.Error(), tc.reason)
			}
		})
	}
}

func TestTransitionErrorCarriesPair(t *testing.T) {
	err := ValidateTransition(5, 7)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if te.Old != 5 || te.New != 7 {
		t.Fatalf("TransitionError pair = (%d, %d), want (5, 7)", te.Old, te.New)
	}
}
