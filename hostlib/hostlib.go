package hostlib

import (
	"io"
	"os"
	"time"

	"github.com/wippyai/suspendjs/sandbox"
)

// Options selects which hosts Register binds.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Root enables fs when set.
	Root        string
	MaxFileSize int64
	// MaxSleep caps timers.sleep; zero leaves it uncapped.
	MaxSleep time.Duration
	Env      map[string]string
	Args     []string
}

// Library holds the hosts bound by Register.
type Library struct {
	Console *ConsoleHost
	Timers  *TimerHost
	Env     *EnvHost
	FS      *FSHost
}

// Register binds console, timers and env, plus fs when opts.Root is set.
func Register(b *sandbox.Bindings, opts Options) (*Library, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	lib := &Library{
		Console: NewConsoleHost(opts.Stdout, opts.Stderr),
		Timers:  NewTimerHost(opts.MaxSleep),
		Env:     NewEnvHost(opts.Env, opts.Args),
	}
	hosts := []sandbox.Host{lib.Console, lib.Timers, lib.Env}
	if opts.Root != "" {
		fs, err := NewFSHost(opts.Root, opts.MaxFileSize)
		if err != nil {
			return nil, err
		}
		lib.FS = fs
		hosts = append(hosts, fs)
	}

	for _, h := range hosts {
		if err := b.RegisterHost(h); err != nil {
			lib.Close()
			return nil, err
		}
	}
	return lib, nil
}

// Close releases the fs root, if any.
func (l *Library) Close() error {
	if l.FS != nil {
		return l.FS.root.Close()
	}
	return nil
}
