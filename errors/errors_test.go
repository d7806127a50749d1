package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseRewrite,
				Kind:   KindUnsupportedSyntax,
				Pos:    Pos{Line: 3, Column: 7},
				Path:   []string{"outer", "inner"},
				Detail: "computed member callee",
			},
			contains: []string{"[rewrite]", "unsupported_syntax", "3:7", "outer.inner", "computed member callee"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseParse,
				Kind:  KindSyntax,
			},
			contains: []string{"[parse]", "syntax"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseConfig,
				Kind:   KindInvalidInput,
				Detail: "parse suspendjs.toml",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[config]", "invalid_input", "suspendjs.toml", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_UnknownPositionOmitted(t *testing.T) {
	err := &Error{Phase: PhaseCompile, Kind: KindConfiguration, Detail: "x"}
	if strings.Contains(err.Error(), " at ") {
		t.Errorf("unexpected position in %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEvaluate,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause through chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseRewrite,
		Kind:  KindUnsupportedSyntax,
	}

	if !err.Is(&Error{Phase: PhaseRewrite, Kind: KindUnsupportedSyntax}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhasePropagate, Kind: KindUnsupportedSyntax}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseRewrite, Kind: KindSyntax}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrUnsupportedSyntax) {
		t.Error("sentinel should match regardless of phase")
	}
	if errors.Is(err, ErrConfiguration) {
		t.Error("configuration sentinel should not match")
	}

	partial := Syntax(Pos{3, 1}, "unexpected end of input")
	partial.Incomplete = true
	if !errors.Is(partial, ErrIncomplete) || !errors.Is(partial, ErrSyntax) {
		t.Error("incomplete syntax error should match both sentinels")
	}
	if errors.Is(Syntax(Pos{1, 1}, "bad"), ErrIncomplete) {
		t.Error("ErrIncomplete should not match a complete syntax error")
	}

	wrapped := fmt.Errorf("transform: %w", Configuration(PhaseCompile, "bad output %q", "x"))
	if !errors.Is(wrapped, ErrConfiguration) {
		t.Error("sentinel should match through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRewrite, KindUnsupportedSyntax).
		Path("f").
		At(2, 9).
		Value("obj[x]").
		Cause(cause).
		Detail("cannot name %s", "obj[x]").
		Build()

	if err.Phase != PhaseRewrite {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseRewrite)
	}
	if err.Kind != KindUnsupportedSyntax {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedSyntax)
	}
	if err.Pos != (Pos{Line: 2, Column: 9}) {
		t.Errorf("Pos = %v", err.Pos)
	}
	if len(err.Path) != 1 || err.Path[0] != "f" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Value != "obj[x]" {
		t.Errorf("Value = %v", err.Value)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v", err.Cause)
	}
	if err.Detail != "cannot name obj[x]" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"Configuration", Configuration(PhaseCompile, "bad"), PhaseCompile, KindConfiguration},
		{"UnsupportedSyntax", UnsupportedSyntax(PhaseRewrite, Pos{1, 1}, "x"), PhaseRewrite, KindUnsupportedSyntax},
		{"Syntax", Syntax(Pos{1, 2}, "unexpected %q", ")"), PhaseParse, KindSyntax},
		{"NotCallable", NotCallable(PhaseCompile, "main", "number"), PhaseCompile, KindConfiguration},
		{"NotFound", NotFound(PhaseEvaluate, "export", "add"), PhaseEvaluate, KindNotFound},
		{"InvalidInput", InvalidInput(PhaseHost, "empty"), PhaseHost, KindInvalidInput},
		{"Registration", Registration("fs", "read", errors.New("x")), PhaseHost, KindRegistration},
		{"Wrap", Wrap(PhaseRuntime, KindTimeout, errors.New("x"), "wait"), PhaseRuntime, KindTimeout},
		{"ParseFailed", ParseFailed("config", errors.New("x")), PhaseConfig, KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestPosOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", Syntax(Pos{Line: 4, Column: 2}, "boom"))
	pos, ok := PosOf(err)
	if !ok || pos.Line != 4 || pos.Column != 2 {
		t.Errorf("PosOf = %v, %v", pos, ok)
	}

	if _, ok := PosOf(errors.New("plain")); ok {
		t.Error("PosOf should not find a position in a plain error")
	}
}
