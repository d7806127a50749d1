package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/suspendjs/internal/cache"
	"github.com/wippyai/suspendjs/suspend"
	"github.com/wippyai/suspendjs/syntax"
)

var transformCmd = &cobra.Command{
	Use:   "transform [flags] [files...]",
	Short: "Rewrite suspending calls in JavaScript files",
	Long: `Rewrite suspending calls in the given files, or in stdin when no file is
given. Output goes to stdout, or next to each input under --out-dir.`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringSlice("names", nil, "suspending names or patterns (fetch, fs.*, /^get/i)")
	transformCmd.Flags().String("output", "auto", "output shape (auto|cooperative|native)")
	transformCmd.Flags().String("out-dir", "", "write each result to this directory instead of stdout")
	transformCmd.Flags().Int("jobs", 0, "max parallel files (0=auto)")
	transformCmd.Flags().Bool("cache", false, "reuse results from the on-disk cache")
	transformCmd.Flags().Bool("report", false, "print a propagation report to stderr")
}

type transformOpts struct {
	patterns []suspend.Pattern
	output   suspend.Output
	cache    *cache.Cache
	log      *zap.Logger
}

// fileResult is one transformed input. Exactly one of err and text is
// meaningful.
type fileResult struct {
	path   string
	src    string
	text   string
	report suspend.Report
	cached bool
	err    error
}

func runTransform(cmd *cobra.Command, args []string) error {
	names, err := cmd.Flags().GetStringSlice("names")
	if err != nil {
		return fmt.Errorf("failed to get names flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return fmt.Errorf("failed to get out-dir flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if !cmd.Flags().Changed("jobs") {
		jobs = app.cfg.Jobs
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	useCache = useCache || app.cfg.Cache.Enabled
	withReport, err := cmd.Flags().GetBool("report")
	if err != nil {
		return fmt.Errorf("failed to get report flag: %w", err)
	}

	opts := transformOpts{log: app.log}
	if opts.patterns, err = patterns(names); err != nil {
		return err
	}
	if opts.output, err = outputMode(cmd); err != nil {
		return err
	}
	opts.output = suspend.ResolveOutput(opts.output)
	if useCache {
		if opts.cache, err = cache.Open(app.cfg.Cache.Dir); err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	var results []fileResult
	if len(args) == 0 {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		results = []fileResult{transformSource("<stdin>", string(src), opts)}
	} else {
		results, err = transformFiles(cmd.Context(), args, jobs, opts)
		if err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			renderError(cmd.ErrOrStderr(), r.path, r.src, r.err)
			continue
		}
		if withReport {
			if err := writeReport(cmd.ErrOrStderr(), r); err != nil {
				return err
			}
		}
		if err := emit(cmd.OutOrStdout(), outDir, r); err != nil {
			return err
		}
	}
	if failed > 0 {
		app.reported = true
		return fmt.Errorf("%d of %d inputs failed", failed, len(results))
	}
	return nil
}

// transformFiles reads and rewrites files in parallel. Per-file failures
// are carried in the results; only cancellation stops the group.
func transformFiles(ctx context.Context, paths []string, jobs int, opts transformOpts) ([]fileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(path)
			if err != nil {
				results[i] = fileResult{path: path, err: err}
				return nil
			}
			results[i] = transformSource(path, string(data), opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func patternStrings(ps []suspend.Pattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func transformSource(path, src string, opts transformOpts) fileResult {
	res := fileResult{path: path, src: src}
	key := cache.Key(src, opts.output.String(), patternStrings(opts.patterns))

	if e, ok, err := opts.cache.Get(key); err != nil {
		opts.log.Warn("cache read failed", zap.String("path", path), zap.Error(err))
	} else if ok {
		res.text = e.Text
		res.cached = true
		res.report = suspend.Report{
			Names:      e.Names,
			Output:     opts.output,
			Iterations: e.Iterations,
			Rewritten:  e.Rewritten,
			Coroutines: e.Coroutines,
		}
		return res
	}

	set, err := suspend.NewNameSet(opts.patterns...)
	if err != nil {
		res.err = err
		return res
	}
	tree, err := syntax.Parse(src)
	if err != nil {
		res.err = err
		return res
	}
	res.report, err = suspend.TransformTree(tree, set, suspend.Config{Logger: opts.log, Output: opts.output})
	if err != nil {
		res.err = err
		return res
	}
	res.text = syntax.Generate(tree)

	err = opts.cache.Put(key, &cache.Entry{
		Text:       res.text,
		Output:     opts.output.String(),
		Names:      res.report.Names,
		Iterations: res.report.Iterations,
		Rewritten:  res.report.Rewritten,
		Coroutines: res.report.Coroutines,
	})
	if err != nil {
		opts.log.Warn("cache write failed", zap.String("path", path), zap.Error(err))
	}
	return res
}

func emit(w io.Writer, outDir string, r fileResult) error {
	if outDir == "" || r.path == "<stdin>" {
		_, err := fmt.Fprintln(w, r.text)
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(outDir, filepath.Base(r.path))
	return os.WriteFile(dst, []byte(r.text+"\n"), 0o644)
}

// reportDoc is the YAML shape of --report.
type reportDoc struct {
	File       string    `yaml:"file"`
	Output     string    `yaml:"output"`
	Cached     bool      `yaml:"cached,omitempty"`
	Iterations int       `yaml:"iterations"`
	Rewritten  int       `yaml:"rewritten"`
	Coroutines int       `yaml:"coroutines"`
	TopLevel   int       `yaml:"top_level,omitempty"`
	Names      []string  `yaml:"names"`
	Steps      []stepDoc `yaml:"steps,omitempty"`
}

type stepDoc struct {
	Added  []string `yaml:"added,flow"`
	Marked []string `yaml:"marked,flow,omitempty"`
}

func writeReport(w io.Writer, r fileResult) error {
	doc := reportDoc{
		File:       r.path,
		Output:     r.report.Output.String(),
		Cached:     r.cached,
		Iterations: r.report.Iterations,
		Rewritten:  r.report.Rewritten,
		Coroutines: r.report.Coroutines,
		TopLevel:   r.report.TopLevel,
		Names:      r.report.Names,
	}
	for _, s := range r.report.Steps {
		doc.Steps = append(doc.Steps, stepDoc{Added: s.Added, Marked: s.Marked})
	}

	var b strings.Builder
	b.WriteString("---\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}
