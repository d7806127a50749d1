package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/gojavm"
	"github.com/wippyai/suspendjs/internal/config"
	"github.com/wippyai/suspendjs/internal/diag"
	"github.com/wippyai/suspendjs/sandbox"
	"github.com/wippyai/suspendjs/suspend"
)

// app holds what every command shares once flags are parsed.
var app struct {
	cfg      config.Config
	log      *zap.Logger
	color    bool
	reported bool
}

func setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Resolve(path, ".")
	if err != nil {
		return err
	}
	app.cfg = cfg

	level, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	if level == "" {
		level = cfg.LogLevel
	}
	app.log, err = newLogger(level, isTerminal(os.Stderr))
	if err != nil {
		return err
	}
	suspend.SetLogger(app.log)

	mode, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "auto":
		app.color = isTerminal(os.Stderr) && os.Getenv("NO_COLOR") == ""
	case "on":
		app.color = true
	case "off":
		app.color = false
	default:
		return fmt.Errorf("unknown color mode %q (expected auto|on|off)", mode)
	}
	color.NoColor = !app.color

	if cfg.Path != "" {
		app.log.Debug("loaded project file", zap.String("path", cfg.Path))
	}
	return nil
}

// newLogger writes to stderr: human-readable on a terminal, JSON
// otherwise.
func newLogger(level string, tty bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zc zap.Config
	if tty {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// patterns merges project names with names given on the command line.
func patterns(extra []string) ([]suspend.Pattern, error) {
	list := append(append([]string{}, app.cfg.Names...), extra...)
	return suspend.ParsePatterns(list)
}

// outputMode prefers the flag when it was set.
func outputMode(cmd *cobra.Command) (suspend.Output, error) {
	if cmd.Flags().Changed("output") {
		s, err := cmd.Flags().GetString("output")
		if err != nil {
			return suspend.OutputAuto, err
		}
		return suspend.ParseOutput(s)
	}
	return app.cfg.OutputMode(), nil
}

// evaluator picks the engine compiled programs run in. The flag wins over
// [sandbox].engine.
func evaluator(cmd *cobra.Command) (compile.Evaluator, error) {
	name := app.cfg.Sandbox.Engine
	if f := cmd.Flags().Lookup("engine"); f != nil && f.Changed {
		name = f.Value.String()
	}
	switch name {
	case "", config.EngineSandbox:
		return sandbox.Evaluator{}, nil
	case config.EngineGoja:
		return gojavm.Evaluator{}, nil
	}
	return nil, fmt.Errorf("unknown engine %q (expected %s|%s)", name, config.EngineSandbox, config.EngineGoja)
}

func renderError(w io.Writer, path, src string, err error) {
	diag.Render(w, path, src, err, diag.Opts{Color: app.color, Context: 2, Width: 120})
}
