package ports

import (
	"context"
	"time"

	"github.com/aretw0/mortar/pkg/domain"
)

// Dialogue is the host-facing surface of a dialogue engine. Adapters (HTTP,
// terminal runner) depend on it rather than on a concrete engine.
type Dialogue interface {
	Start(ctx context.Context, path, node string) error
	Advance(ctx context.Context) domain.AdvanceOutcome
	Select(index int) error
	Confirm(ctx context.Context) (domain.ConfirmOutcome, error)
	Stop(ctx context.Context)
	Render(ctx context.Context) (domain.Rendered, bool)
	SetProgress(cursor float64)
	Replay() bool
	Poll(ctx context.Context, elapsed time.Duration) []domain.DispatchedAction
	Active() bool
}
