package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/mortar/pkg/domain"
)

// Loader implements ports.ProgramLoader using an in-memory map.
// Programs may be replaced at any time; sessions pick up the new version on
// their next jump.
type Loader struct {
	mu       sync.RWMutex
	programs map[string]*domain.Program
}

// NewLoader creates a Loader holding the given programs, keyed by their Path.
func NewLoader(programs ...*domain.Program) *Loader {
	l := &Loader{programs: make(map[string]*domain.Program)}
	for _, p := range programs {
		l.Add(p.Path, p)
	}
	return l
}

// NewFromJSON creates a Loader from compiled JSON payloads keyed by path.
func NewFromJSON(data map[string]string) (*Loader, error) {
	l := NewLoader()
	for path, raw := range data {
		p, err := domain.DecodeProgram([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		l.Add(path, p)
	}
	return l, nil
}

// Add registers (or replaces) the program served under path.
func (l *Loader) Add(path string, p *domain.Program) {
	p.Path = path
	l.mu.Lock()
	defer l.mu.Unlock()
	l.programs[path] = p
}

// Remove forgets the program served under path.
func (l *Loader) Remove(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.programs, path)
}

// Load returns the program registered under path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Program, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.programs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProgramNotFound, path)
	}
	return p, nil
}

// List returns all registered paths.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.programs))
	for k := range l.programs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
