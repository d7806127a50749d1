package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/hostlib"
	"github.com/wippyai/suspendjs/sandbox"
	"github.com/wippyai/suspendjs/suspend"
	"github.com/wippyai/suspendjs/wasmbind"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <file.js> [script args...]",
	Short: "Compile a file and call one of its functions",
	Long: `Compile a file in the sandbox with console, timers and env bindings (and fs
when a root is configured), call --func with the --arg values and print the
settled result as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("func", "main", "function to call")
	runCmd.Flags().StringSlice("names", nil, "extra suspending names or patterns")
	runCmd.Flags().String("output", "auto", "output shape (auto|cooperative|native)")
	runCmd.Flags().StringArray("arg", nil, "argument as JSON, repeatable")
	runCmd.Flags().Duration("timeout", 0, "bound on the whole call (0=none)")
	runCmd.Flags().String("wasm", "", "core wasm module whose exports are bound as wasm.<name>")
	runCmd.Flags().Bool("wasm-sync", false, "bind wasm exports synchronously")
	runCmd.Flags().String("root", "", "directory exposed read-only as fs")
	runCmd.Flags().Bool("show", false, "print the rewritten program to stderr before running")
	runCmd.Flags().String("engine", "", "evaluator the program runs in (sandbox|goja)")
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	flags := cmd.Flags()

	funcName, _ := flags.GetString("func")
	names, _ := flags.GetStringSlice("names")
	rawArgs, _ := flags.GetStringArray("arg")
	timeout, _ := flags.GetDuration("timeout")
	wasmPath, _ := flags.GetString("wasm")
	wasmSync, _ := flags.GetBool("wasm-sync")
	root, _ := flags.GetString("root")
	show, _ := flags.GetBool("show")
	if root == "" {
		root = app.cfg.Host.Root
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	src := string(data)

	callArgs, err := parseArgs(rawArgs)
	if err != nil {
		return err
	}
	output, err := outputMode(cmd)
	if err != nil {
		return err
	}
	eval, err := evaluator(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	b := sandbox.NewBindings()
	lib, err := hostlib.Register(b, hostlib.Options{
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
		Root:        root,
		MaxFileSize: app.cfg.Host.MaxFileSize,
		MaxSleep:    time.Duration(app.cfg.Host.MaxSleep),
		Env:         app.cfg.Host.Env,
		Args:        args[1:],
	})
	if err != nil {
		return err
	}
	defer lib.Close()

	suspending := b.SuspendingNames()
	if wasmPath != "" {
		m, err := loadWasm(ctx, wasmPath, !wasmSync)
		if err != nil {
			return err
		}
		defer m.Close(context.Background())
		if err := m.Register(b); err != nil {
			return err
		}
		suspending = append(suspending, m.SuspendingNames()...)
	}

	ps, err := patterns(names)
	if err != nil {
		return err
	}
	set, err := suspend.NewNameSet(append(ps, suspend.Literals(suspending...)...)...)
	if err != nil {
		return err
	}

	fn, err := compile.Compile(ctx, src, funcName, set, compile.Config{
		Logger:    app.log,
		Evaluator: eval,
		Sandbox:   b.Globals(),
		Options: sandbox.Options{
			Timeout:   time.Duration(app.cfg.Sandbox.Timeout),
			StepLimit: app.cfg.Sandbox.StepLimit,
		},
		Output: output,
	})
	if err != nil {
		app.reported = true
		renderError(cmd.ErrOrStderr(), path, src, err)
		return err
	}
	defer fn.Close()
	app.log.Debug("compiled",
		zap.String("func", funcName),
		zap.Stringer("output", fn.Output()),
		zap.Strings("names", fn.Report().Names))
	if show {
		fmt.Fprintln(cmd.ErrOrStderr(), fn.Rewritten())
	}

	v, err := fn.Call(ctx, callArgs...).Wait(ctx)
	if err != nil {
		app.reported = true
		renderError(cmd.ErrOrStderr(), path, src, err)
		return err
	}
	return printValue(cmd.OutOrStdout(), v)
}

func loadWasm(ctx context.Context, path string, async bool) (*wasmbind.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wasm: %w", err)
	}
	return wasmbind.Load(ctx, data, wasmbind.Config{Logger: app.log, Async: async, WASI: true})
}

// parseArgs decodes each --arg as JSON.
func parseArgs(raw []string) ([]any, error) {
	out := make([]any, len(raw))
	for i, s := range raw {
		if err := json.Unmarshal([]byte(s), &out[i]); err != nil {
			return nil, fmt.Errorf("--arg %d: %w", i+1, err)
		}
	}
	return out, nil
}

func printValue(w io.Writer, v sandbox.Value) error {
	if v == sandbox.Undefined {
		_, err := fmt.Fprintln(w, "undefined")
		return err
	}
	data, err := json.MarshalIndent(sandbox.Export(v), "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(w, sandbox.ToString(v))
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
