package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	t.Parallel()

	cases := map[int]error{
		200: nil,
		204: nil,
		400: ErrValidation,
		401: ErrUnauthorized,
		403: ErrForbidden,
		404: ErrNotFound,
		409: ErrValidation,
		500: ErrServer,
		502: ErrServer,
	}
	for status, want := range cases {
		if got := KindForStatus(status); got != want {
			t.Fatalf("status %d: got %v, want %v", status, got, want)
		}
	}
}

func TestAPIError_IsAndMessage(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("load feed: %w", &APIError{Status: 403, Detail: "Accès refusé", Kind: ErrForbidden})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden in chain")
	}
	if got := Message(err); got != "Accès refusé" {
		t.Fatalf("Message=%q", got)
	}
	if got := Message(ErrNetwork); got != "network" {
		t.Fatalf("Message(sentinel)=%q", got)
	}
	if Message(nil) != "" {
		t.Fatalf("Message(nil) should be empty")
	}
	if (&APIError{Status: 500, Kind: ErrServer}).Error() != "server (500)" {
		t.Fatalf("unexpected error text")
	}
}
