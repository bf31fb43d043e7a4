package xerrors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	base := New("base error")

	t.Run("wrap preserves chain", func(t *testing.T) {
		err := Wrap(base, "context")
		if !errors.Is(err, base) {
			t.Error("expected wrapped error to match base")
		}
		if err.Error() != "context: base error" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("wrap nil returns nil", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("expected nil")
		}
		if Wrapf(nil, "context %d", 1) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("wrapf formats message", func(t *testing.T) {
		err := Wrapf(base, "retry %d", 3)
		if err.Error() != "retry 3: base error" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})
}

func TestWithCode(t *testing.T) {
	base := New("base error")

	t.Run("code is extractable", func(t *testing.T) {
		err := WithCode(base, "out_of_range")
		if GetCode(err) != "out_of_range" {
			t.Errorf("expected code out_of_range, got %q", GetCode(err))
		}
		if !errors.Is(err, base) {
			t.Error("expected coded error to match base")
		}
	})

	t.Run("code survives further wrapping", func(t *testing.T) {
		err := Wrap(WithCode(base, "out_of_range"), "outer")
		if GetCode(err) != "out_of_range" {
			t.Errorf("expected code out_of_range, got %q", GetCode(err))
		}
	})

	t.Run("no code returns empty", func(t *testing.T) {
		if GetCode(base) != "" {
			t.Error("expected empty code")
		}
	})
}

func TestMust(t *testing.T) {
	t.Run("returns value on nil error", func(t *testing.T) {
		if got := Must(42, nil); got != 42 {
			t.Errorf("expected 42, got %d", got)
		}
	})

	t.Run("panics on error", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		Must(0, New("boom"))
	})
}
