package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/mortar/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every event to logger at debug
// level, except choices which are logged at info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "session_id", e.SessionID, "path", e.Path, "node", e.Node)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "session_id", e.SessionID, "path", e.Path, "node", e.Node)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action", "session_id", e.SessionID, "node", e.Node, "name", e.Name, "args", e.Args, "source", e.Source)
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			logger.InfoContext(ctx, "choice", "session_id", e.SessionID, "node", e.Node, "index", e.Index, "text", e.Text, "outcome", e.Outcome.String())
		},
	}
}
