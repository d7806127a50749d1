package suspend

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/wippyai/suspendjs/errors"
)

func TestNameSet(t *testing.T) {
	s, err := NewNameSet(Literal("a"), NewWildcard("fs.*"), Literal("a"), Literal("b"))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Literals(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Literals() = %v", got)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if !s.Match("fs.open") || !s.Match("b") || s.Match("c") {
		t.Error("Match disagrees with patterns")
	}
	if s.Contains("fs.open") {
		t.Error("Contains should only report literals")
	}
	if !s.Add("c") {
		t.Error("Add(c) = false for a new name")
	}
	if s.Add("c") {
		t.Error("Add(c) = true for a duplicate")
	}
	if !s.Match("c") {
		t.Error("added literal does not match")
	}
	if got := s.String(); got != "[a fs.* b c]" {
		t.Errorf("String() = %q", got)
	}
}

func TestNameSetErrors(t *testing.T) {
	tests := []struct {
		name     string
		patterns []Pattern
	}{
		{"nil pattern", []Pattern{Literal("a"), nil}},
		{"empty literal", []Pattern{Literal("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNameSet(tt.patterns...)
			if !stderrors.Is(err, errors.ErrConfiguration) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}
}

func TestNameSetCloneAndFreeze(t *testing.T) {
	s := MustNameSet(Literal("a"))
	c := s.Clone()
	c.Add("b")
	c.Freeze()

	if s.Contains("b") {
		t.Error("clone shares literals with original")
	}
	if s.Frozen() {
		t.Error("freezing the clone froze the original")
	}
	if !c.Frozen() {
		t.Error("clone not frozen")
	}

	defer func() {
		if recover() == nil {
			t.Error("Add on frozen set did not panic")
		}
	}()
	c.Add("z")
}
