package hostlib

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/suspendjs/syntax"
)

// ConsoleHost writes log lines to a writer.
type ConsoleHost struct {
	out io.Writer
	err io.Writer
	mu  sync.Mutex
}

func NewConsoleHost(stdout, stderr io.Writer) *ConsoleHost {
	if stderr == nil {
		stderr = stdout
	}
	return &ConsoleHost{out: stdout, err: stderr}
}

func (h *ConsoleHost) Namespace() string {
	return "console"
}

func (h *ConsoleHost) Log(args ...any) {
	h.write(h.out, args)
}

func (h *ConsoleHost) Info(args ...any) {
	h.write(h.out, args)
}

func (h *ConsoleHost) Warn(args ...any) {
	h.write(h.err, args)
}

func (h *ConsoleHost) Error(args ...any) {
	h.write(h.err, args)
}

func (h *ConsoleHost) write(w io.Writer, args []any) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = format(a)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintln(w, strings.Join(parts, " "))
}

// format renders an exported value the way a script would expect to
// read it back.
func format(v any) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case string:
		return v
	case float64:
		return syntax.FormatNumber(v)
	case bool:
		return strconv.FormatBool(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
