// Package errors provides structured error types for suspendjs.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a source position, a symbolic path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRewrite, errors.KindUnsupportedSyntax).
//		At(3, 12).
//		Path("fetchAll").
//		Detail("computed member callee cannot be named").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Syntax(pos, "unexpected token %q", tok)
//	err := errors.Configuration(errors.PhaseCompile, "unknown output %q", mode)
//
// The three kinds callers usually branch on have sentinels that match
// regardless of phase:
//
//	if errors.Is(err, errors.ErrUnsupportedSyntax) { ... }
package errors
