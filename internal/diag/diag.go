// Package diag renders errors with a source excerpt and a caret under
// the reported column.
package diag

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/sandbox"
)

const tabWidth = 4

// Opts configures Render.
type Opts struct {
	Color bool
	// Context is the number of lines shown before the error line.
	Context int
	// Width truncates excerpt lines, 0 means unlimited.
	Width int
}

type palette struct {
	err, gutter, caret, path *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		path:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.gutter, p.caret, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Position finds the first known source position in err's chain.
func Position(err error) (errors.Pos, bool) {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		switch v := e.(type) {
		case *errors.Error:
			if v.Pos.IsValid() {
				return v.Pos, true
			}
		case *sandbox.Exception:
			if v.Pos.IsValid() {
				return v.Pos, true
			}
		}
	}
	return errors.Pos{}, false
}

// Render writes err as
//
//	path:line:col: error: message
//	   3 | let x = ;
//	     |         ^
//
// Errors without a position get the header line only.
func Render(w io.Writer, path, src string, err error, opts Opts) {
	p := newPalette(opts.Color)
	pos, ok := Position(err)

	loc := path
	if ok {
		loc = fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Column)
	}
	if loc != "" {
		fmt.Fprintf(w, "%s: ", p.path.Sprint(loc))
	}
	fmt.Fprintf(w, "%s %s\n", p.err.Sprint("error:"), err)

	if !ok {
		return
	}
	lines := strings.Split(src, "\n")
	if pos.Line > len(lines) {
		return
	}

	first := max(pos.Line-opts.Context, 1)
	gutterWidth := len(strconv.Itoa(pos.Line))
	for n := first; n <= pos.Line; n++ {
		line := expandTabs(strings.TrimRight(lines[n-1], "\r"))
		if opts.Width > 0 {
			line = truncate(line, opts.Width)
		}
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, n), line)
	}

	col := caretColumn(lines[pos.Line-1], pos.Column)
	if opts.Width > 0 && col >= opts.Width {
		return
	}
	fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""),
		strings.Repeat(" ", col), p.caret.Sprint("^"))
}

// caretColumn returns the display width of line before the 1-based rune
// column.
func caretColumn(line string, column int) int {
	runes := []rune(line)
	if column-1 < len(runes) {
		runes = runes[:max(column-1, 0)]
	}
	return runewidth.StringWidth(expandTabs(string(runes)))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	width := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - width%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			width += n
			continue
		}
		b.WriteRune(r)
		width += runewidth.RuneWidth(r)
	}
	return b.String()
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
