package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/mortar"
	"github.com/aretw0/mortar/internal/config"
	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/observability"
	"github.com/aretw0/mortar/pkg/ports"
)

// createEngine initializes an engine over the configured assets directory.
// Debug mode adds lifecycle logging on top of hooks.
func createEngine(cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks, debug bool) (*mortar.Engine, error) {
	if info, err := os.Stat(cfg.Assets); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("assets directory %q is not readable", cfg.Assets)
	}
	if debug {
		hooks = hooks.Merge(observability.LogHooks(logger))
	}
	engine, err := mortar.New(cfg.Assets,
		mortar.WithLogger(logger),
		mortar.WithLifecycleHooks(hooks),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

var entryNames = []string{"start", "main", "index"}

var entryExts = []string{".mortared", ".json", ".yaml", ".yml"}

// determineEntryPoint guesses the program to run from dir: start, main,
// index, then a file named after the directory. It returns "" when none exists.
func determineEntryPoint(dir string) string {
	names := append(append([]string(nil), entryNames...), filepath.Base(dir))
	for _, name := range names {
		for _, ext := range entryExts {
			if _, err := os.Stat(filepath.Join(dir, name+ext)); err == nil {
				return name + ext
			}
		}
	}
	return ""
}

// resolveEntry fills in the program path and start node. Flags win over the
// config; a missing node means the first node of the program.
func resolveEntry(ctx context.Context, loader ports.ProgramLoader, cfg *config.Config, path, node string) (string, string, error) {
	if path == "" {
		path = cfg.Entry.Path
		if node == "" {
			node = cfg.Entry.Node
		}
	}
	if path == "" {
		path = determineEntryPoint(cfg.Assets)
	}
	if path == "" {
		if lister, ok := loader.(ports.ProgramLister); ok {
			if paths, err := lister.List(ctx); err == nil && len(paths) > 0 {
				path = paths[0]
			}
		}
	}
	if path == "" {
		return "", "", fmt.Errorf("no program found in %s", cfg.Assets)
	}
	if node != "" {
		return path, node, nil
	}

	program, err := loader.Load(ctx, path)
	if err != nil {
		return "", "", err
	}
	if len(program.Nodes) == 0 {
		return "", "", &domain.NotFoundError{Path: path, Err: domain.ErrNodeNotFound}
	}
	return path, program.Nodes[0].Name, nil
}

// programFile maps a program path to its file on disk.
func programFile(cfg *config.Config, path string) (string, error) {
	if !file.Supported(path) {
		return "", errors.New("unsupported program file: " + path)
	}
	return filepath.Join(cfg.Assets, filepath.FromSlash(path)), nil
}
