package hostlib

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
)

// FSHost reads files below a root directory. Paths are resolved inside
// the root and cannot escape it, including through symlinks.
type FSHost struct {
	root    *os.Root
	maxSize int64
}

// NewFSHost opens dir as the root. maxSize bounds readFile; zero means
// 16 MiB.
func NewFSHost(dir string, maxSize int64) (*FSHost, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", dir, err)
	}
	if maxSize <= 0 {
		maxSize = 16 << 20
	}
	return &FSHost{root: root, maxSize: maxSize}, nil
}

func (h *FSHost) Namespace() string {
	return "fs"
}

func (h *FSHost) AsyncFunctions() []string {
	return []string{"readFile", "readDir", "exists"}
}

func (h *FSHost) ReadFile(_ context.Context, path string) (string, error) {
	f, err := h.root.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > h.maxSize {
		return "", fmt.Errorf("%s: file larger than %d bytes", path, h.maxSize)
	}
	return string(data), nil
}

// ReadDir returns the sorted entry names of a directory.
func (h *FSHost) ReadDir(_ context.Context, path string) ([]string, error) {
	f, err := h.root.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (h *FSHost) Exists(_ context.Context, path string) bool {
	_, err := h.root.Stat(path)
	return err == nil
}
