package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/wippyai/suspendjs"
	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/hostlib"
	"github.com/wippyai/suspendjs/sandbox"
	"github.com/wippyai/suspendjs/suspend"
	"github.com/wippyai/suspendjs/syntax"
)

const (
	historyFile = ".suspendjs_history"
	promptMain  = "sjs> "
	promptCont  = "...> "
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Build a program interactively and watch it being rewritten",
	Long: `Each entry is appended to the session program, which is transformed again
and printed. Commands:

  :names [p ...]   show or add suspending names
  :output [mode]   show or set the output shape
  :run f [json..]  compile the session and call f
  :show            print the session source
  :reset           clear the session
  :quit            leave`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringSlice("names", nil, "extra suspending names or patterns")
	replCmd.Flags().String("output", "auto", "output shape (auto|cooperative|native)")
	replCmd.Flags().String("engine", "", "evaluator for :run (sandbox|goja)")
}

// session is the program built up by the REPL.
type session struct {
	src      []string
	names    []string
	output   suspend.Output
	eval     compile.Evaluator
	out, err io.Writer
	color    bool
}

func runRepl(cmd *cobra.Command, _ []string) error {
	extra, _ := cmd.Flags().GetStringSlice("names")
	output, err := outputMode(cmd)
	if err != nil {
		return err
	}
	eval, err := evaluator(cmd)
	if err != nil {
		return err
	}
	s := &session{
		names:  append(append([]string{}, app.cfg.Names...), extra...),
		output: output,
		eval:   eval,
		out:    cmd.OutOrStdout(),
		err:    cmd.ErrOrStderr(),
		color:  app.color,
	}
	if _, err := suspend.ParsePatterns(s.names); err != nil {
		return err
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(s.out, "suspendjs %s  (:quit to exit)\n", suspendjs.Version)
	for {
		code, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(code, ":") {
			if s.command(cmd.Context(), code) {
				return nil
			}
			continue
		}
		s.add(code)
	}
}

// readEntry keeps reading continuation lines while the input so
// far ends in the middle of a statement.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if stderrors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C drops the pending entry
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !incomplete(src) {
			return src, true
		}
	}
}

// incomplete reports whether src fails to parse only because it ends
// too early.
func incomplete(src string) bool {
	_, err := syntax.Parse(src)
	return stderrors.Is(err, errors.ErrIncomplete)
}

func (s *session) source() string {
	return strings.Join(s.src, "\n")
}

func (s *session) patterns() ([]suspend.Pattern, error) {
	return suspend.ParsePatterns(s.names)
}

// add appends code to the session when the result still transforms and
// prints the rewritten program.
func (s *session) add(code string) bool {
	next := strings.Join(append(append([]string{}, s.src...), code), "\n")
	text, report, err := rewrite(next, s.names, s.output)
	if err != nil {
		s.fail(next, err)
		return false
	}
	s.src = append(s.src, code)
	fmt.Fprintln(s.out, text)
	s.note("%d pass(es), %d name(s), %d rewritten", report.Iterations, len(report.Names), report.Rewritten)
	return true
}

// command runs a ':' command and reports whether the REPL should exit.
func (s *session) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":names":
		if len(fields) > 1 {
			if _, err := suspend.ParsePatterns(fields[1:]); err != nil {
				s.fail("", err)
				return false
			}
			s.names = append(s.names, fields[1:]...)
		}
		fmt.Fprintln(s.out, strings.Join(s.names, " "))
	case ":output":
		if len(fields) > 1 {
			o, err := suspend.ParseOutput(fields[1])
			if err != nil {
				s.fail("", err)
				return false
			}
			s.output = o
		}
		fmt.Fprintln(s.out, s.output)
	case ":show":
		fmt.Fprintln(s.out, s.source())
	case ":reset":
		s.src = nil
		s.note("session cleared")
	case ":run":
		if len(fields) < 2 {
			s.fail("", fmt.Errorf("usage: :run <function> [json args...]"))
			return false
		}
		s.run(ctx, fields[1], fields[2:])
	default:
		s.fail("", fmt.Errorf("unknown command %s", fields[0]))
	}
	return false
}

func (s *session) run(ctx context.Context, name string, raw []string) {
	if ctx == nil {
		ctx = context.Background()
	}
	args, err := parseArgs(raw)
	if err != nil {
		s.fail("", err)
		return
	}

	b := sandbox.NewBindings()
	lib, err := hostlib.Register(b, hostlib.Options{Stdout: s.out, Stderr: s.err, Env: app.cfg.Host.Env})
	if err != nil {
		s.fail("", err)
		return
	}
	defer lib.Close()

	ps, err := s.patterns()
	if err != nil {
		s.fail("", err)
		return
	}
	set, err := suspend.NewNameSet(append(ps, suspend.Literals(b.SuspendingNames()...)...)...)
	if err != nil {
		s.fail("", err)
		return
	}

	src := s.source()
	fn, err := compile.Compile(ctx, src, name, set, compile.Config{
		Logger:    app.log,
		Evaluator: s.eval,
		Sandbox:   b.Globals(),
		Options:   sandbox.Options{StepLimit: app.cfg.Sandbox.StepLimit},
		Output:    s.output,
	})
	if err != nil {
		s.fail(src, err)
		return
	}
	defer fn.Close()
	v, err := fn.Call(ctx, args...).Wait(ctx)
	if err != nil {
		s.fail(src, err)
		return
	}
	_ = printValue(s.out, v)
}

func (s *session) fail(src string, err error) {
	if src == "" {
		msg := "error: " + err.Error()
		if s.color {
			msg = color.New(color.FgRed).Sprint(msg)
		}
		fmt.Fprintln(s.err, msg)
		return
	}
	renderError(s.err, "<repl>", src, err)
}

func (s *session) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.color {
		msg = color.New(color.Faint).Sprint(msg)
	}
	fmt.Fprintln(s.err, msg)
}
