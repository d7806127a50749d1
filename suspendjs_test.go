package suspendjs

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/suspend"
)

func TestCompileRejectsBadNames(t *testing.T) {
	tests := []struct {
		name  string
		names []suspend.Pattern
	}{
		{"nil_pattern", []suspend.Pattern{nil}},
		{"empty_literal", []suspend.Pattern{suspend.Literal("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(context.Background(), "function f() {}", "f", tt.names, compile.Config{})
			if !stderrors.Is(err, errors.ErrConfiguration) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestCapabilitySupportedStable(t *testing.T) {
	first := CapabilitySupported()
	for i := 0; i < 3; i++ {
		if CapabilitySupported() != first {
			t.Fatal("capability result changed")
		}
	}
	if !first {
		t.Error("sandbox should support async functions")
	}
}
