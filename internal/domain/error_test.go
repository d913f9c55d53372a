//go:build !integration

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{ErrTicketNotFound, KindNotFound},
		{fmt.Errorf("wrapped: %w", ErrTicketAlreadyUsed), KindAlreadyUsed},
		{errors.Join(ErrOperationFailed, errors.New("driver")), KindInternal},
		{errors.New("plain"), KindInternal},
		{ErrTicketBusy, KindConflict},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %q, want %q", c.err, got, c.want)
		}
	}
	if !IsKind(ErrNotOwner, KindNotAuthorized) {
		t.Error("ErrNotOwner should be not_authorized")
	}
	if IsKind(nil, KindInternal) {
		t.Error("nil error has no kind")
	}
}
