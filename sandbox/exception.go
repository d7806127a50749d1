package sandbox

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/wippyai/suspendjs/errors"
)

// Pos is a 1-based source position.
type Pos = errors.Pos

// Exception is a value thrown by script code and not caught.
type Exception struct {
	Value Value
	Pos   errors.Pos
}

func (e *Exception) Error() string {
	msg := ToString(e.Value)
	if e.Pos.IsValid() {
		return fmt.Sprintf("uncaught %s at %s", msg, e.Pos)
	}
	return "uncaught " + msg
}

// Name returns the name property of an error object, or "".
func (e *Exception) Name() string {
	if o, ok := e.Value.(*Object); ok && o.Class == "Error" {
		if n, ok := o.Get("name"); ok {
			return ToString(n)
		}
	}
	return ""
}

// throwf returns an exception carrying a fresh error object.
func throwf(pos errors.Pos, name, format string, args ...any) error {
	return &Exception{Value: NewError(name, fmt.Sprintf(format, args...)), Pos: pos}
}

// errStopped unwinds a coroutine whose owner abandoned it.
var errStopped = stderrors.New("sandbox: coroutine stopped")

// returnSignal unwinds a generator closed by return().
type returnSignal struct {
	value Value
}

func (r *returnSignal) Error() string { return "sandbox: generator return" }

// catchable reports whether script code may catch err, and the value the
// catch clause binds.
func catchable(err error) (Value, bool) {
	var ex *Exception
	if stderrors.As(err, &ex) {
		return ex.Value, true
	}
	var rs *returnSignal
	switch {
	case stderrors.As(err, &rs),
		stderrors.Is(err, errStopped),
		stderrors.Is(err, errors.ErrTimeout),
		stderrors.Is(err, errors.ErrLimit),
		stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded):
		return nil, false
	}
	return NewError("Error", err.Error()), true
}

// ReasonValue returns the script value a rejection with err delivers to
// handlers.
func ReasonValue(err error) Value {
	if v, ok := catchable(err); ok {
		return v
	}
	return NewError("Error", err.Error())
}
