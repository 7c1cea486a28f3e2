package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrProcessInvocation, "export", "normalize pass", "inspect encoder stderr", cause)

	if !errors.Is(err, ErrProcessInvocation) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	for _, fragment := range []string{"export", "normalize pass", "inspect encoder stderr"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error message missing %q: %v", fragment, err)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "config", "load", "", nil)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration marker: %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	if Fatal(nil) {
		t.Fatal("nil error must not be fatal")
	}
	if Fatal(Wrap(ErrAudioValidation, "export", "audio", "", nil)) {
		t.Fatal("audio validation failures are recovered, not fatal")
	}
	if !Fatal(Wrap(ErrMissingSource, "export", "prepare", "", nil)) {
		t.Fatal("missing source must be fatal")
	}
}

func TestInternalBugClassification(t *testing.T) {
	if !InternalBug(ErrInvalidExportConfiguration) {
		t.Fatal("invalid export configuration is an analyzer bug")
	}
	if InternalBug(ErrProcessInvocation) {
		t.Fatal("encoder failures are environmental, not bugs")
	}
}
