package suspend

import (
	"slices"

	"github.com/wippyai/suspendjs/errors"
)

// NameSet is the ordered, append-only collection of patterns naming the
// suspending callees of one compilation.
//
// Literal names are kept in insertion order and never duplicated. Once
// frozen, Add panics: a rewrite must never see the set change under it.
type NameSet struct {
	patterns []Pattern
	literals map[string]struct{}
	order    []string
	frozen   bool
}

// NewNameSet builds a set from patterns. A nil pattern or an empty literal
// is a configuration error.
func NewNameSet(patterns ...Pattern) (*NameSet, error) {
	s := &NameSet{literals: make(map[string]struct{}, len(patterns))}
	for i, p := range patterns {
		if p == nil {
			return nil, errors.Configuration(errors.PhaseConfig, "name pattern %d is nil", i)
		}
		if lit, ok := p.(Literal); ok {
			if lit == "" {
				return nil, errors.Configuration(errors.PhaseConfig, "name pattern %d is an empty literal", i)
			}
			s.Add(string(lit))
			continue
		}
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// MustNameSet is like NewNameSet but panics on error.
func MustNameSet(patterns ...Pattern) *NameSet {
	s, err := NewNameSet(patterns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether any pattern accepts name.
func (s *NameSet) Match(name string) bool {
	for _, p := range s.patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Contains reports whether name was added as a literal.
func (s *NameSet) Contains(name string) bool {
	_, ok := s.literals[name]
	return ok
}

// Add appends name as a literal pattern. It returns false when the
// literal is already present.
func (s *NameSet) Add(name string) bool {
	if s.frozen {
		panic("suspend: Add on frozen NameSet")
	}
	if s.Contains(name) {
		return false
	}
	s.literals[name] = struct{}{}
	s.order = append(s.order, name)
	s.patterns = append(s.patterns, Literal(name))
	return true
}

// Literals returns the literal names in insertion order.
func (s *NameSet) Literals() []string {
	return slices.Clone(s.order)
}

// Patterns returns every pattern in match order.
func (s *NameSet) Patterns() []Pattern {
	return slices.Clone(s.patterns)
}

func (s *NameSet) Len() int {
	return len(s.patterns)
}

// Clone returns an unfrozen copy sharing no state with s.
func (s *NameSet) Clone() *NameSet {
	c := &NameSet{
		patterns: slices.Clone(s.patterns),
		literals: make(map[string]struct{}, len(s.literals)),
		order:    slices.Clone(s.order),
	}
	for name := range s.literals {
		c.literals[name] = struct{}{}
	}
	return c
}

func (s *NameSet) Freeze() {
	s.frozen = true
}

func (s *NameSet) Frozen() bool {
	return s.frozen
}

func (s *NameSet) String() string {
	out := "["
	for i, p := range s.patterns {
		if i > 0 {
			out += " "
		}
		out += p.String()
	}
	return out + "]"
}
