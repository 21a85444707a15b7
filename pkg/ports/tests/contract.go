package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
)

// ProgramLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ProgramLoader.
// expected maps each known path to the name of its first node.
func ProgramLoaderContractTest(t *testing.T, loader ports.ProgramLoader, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for path, firstNode := range expected {
			program, err := loader.Load(ctx, path)
			if err != nil {
				t.Fatalf("unexpected error loading %s: %v", path, err)
			}
			if len(program.Nodes) == 0 {
				t.Fatalf("program %s has no nodes", path)
			}
			if program.Nodes[0].Name != firstNode {
				t.Errorf("first node mismatch for %s. got %q, want %q", path, program.Nodes[0].Name, firstNode)
			}
			if program.Path != path {
				t.Errorf("path not recorded: got %q, want %q", program.Path, path)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent.mortared")
		if !errors.Is(err, domain.ErrProgramNotFound) {
			t.Errorf("expected ErrProgramNotFound, got %v", err)
		}
	})

	lister, ok := loader.(ports.ProgramLister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		paths, err := lister.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing programs: %v", err)
		}
		if len(paths) != len(expected) {
			t.Errorf("expected %d programs, got %d (%v)", len(expected), len(paths), paths)
		}
		for _, p := range paths {
			if _, ok := expected[p]; !ok {
				t.Errorf("unexpected program %q in list", p)
			}
		}
	})
}
