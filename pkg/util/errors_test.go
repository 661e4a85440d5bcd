package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInvariantError(t *testing.T) {
	err := &InvariantError{Component: "builder", Message: "no peer group in scope"}
	if !strings.Contains(err.Error(), "builder") || !strings.Contains(err.Error(), "no peer group in scope") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrInvariant) {
		t.Error("InvariantError should unwrap to ErrInvariant")
	}
}

func TestRecoverInvariant(t *testing.T) {
	run := func() (err error) {
		defer RecoverInvariant(&err)
		Invariantf("convert", "area lookup for %s", "Gi0/1")
		return nil
	}

	err := run()
	var ie *InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("RecoverInvariant() error = %v, want *InvariantError", err)
	}
	if ie.Component != "convert" || ie.Message != "area lookup for Gi0/1" {
		t.Errorf("recovered %+v", ie)
	}
}

func TestRecoverInvariantRepanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recover() = %v, want boom", r)
		}
	}()
	func() {
		var err error
		defer RecoverInvariant(&err)
		panic("boom")
	}()
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		var vb ValidationBuilder
		vb.Add(true, "never")
		if vb.HasErrors() || vb.Build() != nil {
			t.Error("expected no errors")
		}
	})

	t.Run("accumulates", func(t *testing.T) {
		var vb ValidationBuilder
		vb.Add(false, "workers must be positive").AddErrorf("unknown format %q", "xml")
		err := vb.Build()
		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("Build() = %v, want ErrValidationFailed", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "workers must be positive") || !strings.Contains(msg, `unknown format "xml"`) {
			t.Errorf("Build() message = %q", msg)
		}
	})
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewNotFoundError("host", "r1"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped NotFoundError should match ErrNotFound")
	}
	if !strings.Contains(err.Error(), "host 'r1' not found") {
		t.Errorf("Error() = %q", err.Error())
	}
}
