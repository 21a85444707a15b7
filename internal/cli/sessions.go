package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/aretw0/mortar/internal/config"
	"github.com/aretw0/mortar/pkg/domain"
)

// ListSessions prints the stored sessions with their position.
func ListSessions(ctx context.Context, cfg *config.Config, w io.Writer) error {
	store, _, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tPROGRAM\tNODE\tUPDATED")
	for _, id := range ids {
		snap, err := store.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t?\t?\t%v\n", id, err)
			continue
		}
		updated := "-"
		if !snap.UpdatedAt.IsZero() {
			updated = snap.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, snap.Path, snap.Node, updated)
	}
	return tw.Flush()
}

// LoadSession returns the stored snapshot of a session.
func LoadSession(ctx context.Context, cfg *config.Config, id string) (*domain.Snapshot, error) {
	store, _, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return store.Load(ctx, id)
}

// InspectSession prints the stored snapshot as indented JSON.
func InspectSession(ctx context.Context, cfg *config.Config, id string, w io.Writer) error {
	snap, err := LoadSession(ctx, cfg, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
