package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/mortar/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ProgramLoader over a directory of compiled programs.
// Paths are slash-separated and relative to the base directory.
type Loader struct {
	BasePath string
}

// NewLoader creates a loader rooted at basePath ("." when empty).
func NewLoader(basePath string) *Loader {
	if basePath == "" {
		basePath = "."
	}
	return &Loader{BasePath: basePath}
}

// Load reads and decodes the program at path.
// JSON is used for .mortared and .json files, YAML for .yaml and .yml.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" || !fs.ValidPath(path) {
		return nil, fmt.Errorf("%w: invalid path %q", domain.ErrProgramNotFound, path)
	}

	data, err := os.ReadFile(filepath.Join(l.BasePath, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProgramNotFound, path)
		}
		return nil, fmt.Errorf("failed to read program %s: %w", path, err)
	}

	program, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	program.Path = path
	return program, nil
}

func decode(path string, data []byte) (*domain.Program, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var p domain.Program
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode program: %w", err)
		}
		return &p, nil
	default:
		return domain.DecodeProgram(data)
	}
}

// Supported reports whether the loader can decode files with this name.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mortared", ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// List walks the base directory and returns every loadable program path, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.BasePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != l.BasePath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(l.BasePath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
