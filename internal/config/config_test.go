package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/suspend"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	want := Config{
		Names:    []string{"fetch", "fs.*"},
		Output:   "cooperative",
		Jobs:     4,
		LogLevel: "debug",
		Sandbox:  Sandbox{Timeout: Duration(1500 * time.Millisecond), StepLimit: 10000, Engine: EngineGoja},
		Cache:    Cache{Dir: ".suspendjs-cache", Enabled: true},
		Host:     Host{Root: "data", Env: map[string]string{"MODE": "test"}},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "suspendjs.toml", `names = ["fetch", "fs.*"]
output = "cooperative"
jobs = 4
log_level = "debug"

[sandbox]
timeout = "1.5s"
step_limit = 10000
engine = "goja"

[cache]
enabled = true

[host]
root = "data"
env = { MODE = "test" }
`},
		{"yaml", "suspendjs.yaml", `names: [fetch, "fs.*"]
output: cooperative
jobs: 4
log_level: debug
sandbox:
  timeout: 1.5s
  step_limit: 10000
  engine: goja
cache:
  enabled: true
host:
  root: data
  env:
    MODE: test
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), tt.file, tt.content)
			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			want.Path = path
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %+v\nwant %+v", got, want)
			}
			if got.OutputMode() != suspend.OutputCooperative {
				t.Errorf("output = %s", got.OutputMode())
			}
			patterns, err := got.Patterns()
			if err != nil || len(patterns) != 2 || !patterns[1].Match("fs.readFile") {
				t.Errorf("patterns = %v, %v", patterns, err)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad_toml", "a.toml", "names = ["},
		{"unknown_toml_key", "a.toml", "colour = true"},
		{"unknown_yaml_key", "a.yaml", "colour: true"},
		{"bad_output", "a.toml", `output = "threads"`},
		{"bad_pattern", "a.toml", `names = ["/(/"]`},
		{"empty_names", "a.toml", "names = []"},
		{"zero_timeout", "a.toml", "[sandbox]\ntimeout = \"0s\""},
		{"bad_duration", "a.yaml", "sandbox:\n  timeout: soon"},
		{"negative_jobs", "a.yaml", "jobs: -1"},
		{"unknown_engine", "a.yaml", "sandbox:\n  engine: v8"},
		{"unsupported_ext", "a.json", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), tt.file, tt.content)
			_, err := Load(path)
			if !stderrors.Is(err, errors.ErrConfiguration) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := write(t, root, "suspendjs.yml", "output: native\n")

	got, ok, err := Find(nested)
	if err != nil || !ok || got != path {
		t.Fatalf("Find = (%q, %v, %v)", got, ok, err)
	}

	cfg, err := Resolve("", nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputMode() != suspend.OutputNative || cfg.Path != path {
		t.Errorf("resolved %+v", cfg)
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("got %+v", cfg)
	}
}
