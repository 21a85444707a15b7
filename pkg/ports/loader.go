package ports

import (
	"context"

	"github.com/aretw0/mortar/pkg/domain"
)

// ProgramLoader defines how the engine retrieves compiled programs.
// This allows the storage layer (Memory, FS) to be decoupled.
type ProgramLoader interface {
	// Load returns the program stored under path.
	// It returns domain.ErrProgramNotFound (possibly wrapped) when the program
	// is unknown or not loaded yet, so the caller may retry later.
	Load(ctx context.Context, path string) (*domain.Program, error)
}

// ProgramLister is implemented by loaders that can enumerate their programs.
// It is used by introspection tools (e.g. 'mortar graph').
type ProgramLister interface {
	List(ctx context.Context) ([]string, error)
}
