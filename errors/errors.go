package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // source text to AST
	PhasePropagate Phase = "propagate" // name set fixpoint
	PhaseRewrite   Phase = "rewrite"   // suspension point insertion
	PhaseCompile   Phase = "compile"   // compile orchestration
	PhaseEvaluate  Phase = "evaluate"  // sandboxed evaluation
	PhaseRuntime   Phase = "runtime"   // compiled function execution
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseHost      Phase = "host"      // host binding registration
)

// Kind categorizes the error
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindUnsupportedSyntax Kind = "unsupported_syntax"
	KindSyntax            Kind = "syntax"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindRegistration      Kind = "registration"
	KindTimeout           Kind = "timeout"
	KindLimit             Kind = "limit"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrUnsupportedSyntax = &Error{Kind: KindUnsupportedSyntax}
	ErrSyntax            = &Error{Kind: KindSyntax}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrLimit             = &Error{Kind: KindLimit}

	// ErrIncomplete matches syntax errors caused by input that ended
	// before a construct was closed. It also matches ErrSyntax.
	ErrIncomplete = &Error{Kind: KindSyntax, Incomplete: true}
)

// Pos is a 1-based source position. The zero value means unknown.
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Pos    Pos

	// Incomplete marks a syntax error at the end of the input.
	Incomplete bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Pos.IsValid() {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}

	if len(e.Path) > 0 {
		b.WriteString(" in ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Incomplete && !e.Incomplete {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the symbolic path (function names, config keys)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// At sets the source position
func (b *Builder) At(line, column int) *Builder {
	b.err.Pos = Pos{Line: line, Column: column}
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Configuration creates a configuration error
func Configuration(phase Phase, format string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConfiguration,
		Detail: fmt.Sprintf(format, args...),
	}
}

// UnsupportedSyntax creates an error for a construct the rewriter cannot name
func UnsupportedSyntax(phase Phase, pos Pos, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedSyntax,
		Pos:    pos,
		Detail: what,
	}
}

// Syntax creates a parse error at a source position
func Syntax(pos Pos, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Pos:    pos,
		Detail: fmt.Sprintf(format, args...),
	}
}

// NotCallable creates an error for a value that was expected to be a function
func NotCallable(phase Phase, name string, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConfiguration,
		Path:   []string{name},
		Detail: fmt.Sprintf("%q resolves to %s, not a function", name, got),
		Value:  got,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a host binding registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s.%s", namespace, name),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a loading error for a configuration or source file
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Timeout creates an error for an evaluation that ran past its deadline
func Timeout(phase Phase, after string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTimeout,
		Detail: "evaluation exceeded " + after,
	}
}

// Limit creates an error for an evaluation that ran out of steps
func Limit(phase Phase, steps int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLimit,
		Detail: fmt.Sprintf("evaluation exceeded %d steps", steps),
		Value:  steps,
	}
}

// PosOf returns the source position carried by err, if any.
func PosOf(err error) (Pos, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Pos.IsValid() {
			return e.Pos, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return Pos{}, false
		}
		err = u.Unwrap()
	}
	return Pos{}, false
}
