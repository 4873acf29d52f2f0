package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ErrNoGoMod is returned when no go.mod is found above a directory
var ErrNoGoMod = errors.New("go.mod file not found")

// Module describes the Go module a lint run belongs to
type Module struct {
	Path      string
	GoVersion string
	Dir       string
}

// ResolveModule finds the go.mod governing dir, walking up to the filesystem root
func ResolveModule(dir string) (*Module, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	for {
		goModPath := filepath.Join(current, "go.mod")
		data, err := os.ReadFile(goModPath)
		if err == nil {
			return parseModule(goModPath, data)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read go.mod file: %w", err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrNoGoMod
		}
		current = parent
	}
}

func parseModule(path string, data []byte) (*Module, error) {
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if f.Module == nil {
		return nil, fmt.Errorf("no module declaration found in %s", path)
	}

	m := &Module{Path: f.Module.Mod.Path, Dir: filepath.Dir(path)}
	if f.Go != nil {
		m.GoVersion = f.Go.Version
	}
	return m, nil
}
