package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeAndKind(t *testing.T) {
	err := New(KindNotFound, "notes.get", "note_missing")
	if err.Code() != "notes.get.note_missing" {
		t.Fatalf("unexpected code %q", err.Code())
	}
	if err.Kind() != KindNotFound {
		t.Fatalf("unexpected kind %q", err.Kind())
	}
	if err.Error() != "notes.get.note_missing" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row scan failed")
	err := Wrap(KindInternal, "notes.list", "query_failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if err.Error() != "notes.list.query_failed: row scan failed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKindOfTraversesChain(t *testing.T) {
	inner := New(KindInsufficientFunds, "economy.charge", "insufficient_funds")
	wrapped := fmt.Errorf("download rejected: %w", inner)
	if KindOf(wrapped) != KindInsufficientFunds {
		t.Fatalf("expected kind to survive wrapping, got %q", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindInsufficientFunds) {
		t.Fatalf("expected IsKind to match")
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("expected plain errors to classify as internal")
	}
	if IsKind(nil, KindInternal) {
		t.Fatalf("nil error must not match any kind")
	}
}

func TestInsufficientFundsErrorCarriesAmounts(t *testing.T) {
	funds := &InsufficientFundsError{Required: 5, Available: 3}
	err := Wrap(KindInsufficientFunds, "economy.charge", "insufficient_funds", funds)

	var extracted *InsufficientFundsError
	if !errors.As(err, &extracted) {
		t.Fatalf("expected InsufficientFundsError in chain")
	}
	if extracted.Required != 5 || extracted.Available != 3 {
		t.Fatalf("unexpected amounts %+v", extracted)
	}
}
