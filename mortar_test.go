package mortar_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/aretw0/mortar"
	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/adapters/memory"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/dsl"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAssetsOrLoader(t *testing.T) {
	_, err := mortar.New("")
	assert.Error(t, err)
}

func TestFacade_FileAssets(t *testing.T) {
	ctx := context.Background()
	eng, err := mortar.New(filepath.Join("testdata", "assets"))
	require.NoError(t, err)
	assert.Equal(t, "assets", eng.Name)

	require.NoError(t, eng.Start(ctx, "intro.mortared", "Start"))

	out := eng.Poll(ctx, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "play_sound", out[0].Name)
	assert.Equal(t, []string{"door.wav"}, out[0].Args)

	// A lone run event does not hold the text back.
	view, ok := eng.Render(ctx)
	require.True(t, ok)
	assert.False(t, view.Busy)
	assert.Equal(t, "Hello, Ada!", view.Body)
	require.Len(t, view.Choices, 2)

	eng.SetProgress(6)
	fired := eng.Poll(ctx, 0)
	require.Len(t, fired, 1)
	assert.Equal(t, "blink", fired[0].Name)
	assert.Equal(t, domain.SourceText, fired[0].Source)

	require.NoError(t, eng.Select(1))
	res, err := eng.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmEnded, res.Kind)
	assert.False(t, eng.Active())
}

func TestFacade_StartMissing(t *testing.T) {
	ctx := context.Background()
	eng, err := mortar.New(t.TempDir())
	require.NoError(t, err)

	err = eng.Start(ctx, "ghost.mortared", "Start")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost.mortared", nf.Path)
}

func TestFacade_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	b := dsl.New("save.mortared")
	b.Var("gold", "Number", 0)
	b.Add("A").Text("One").Assign("gold", "3").Text("Two").Text("Gold {gold}")

	loader, err := b.Build()
	require.NoError(t, err)
	store := memory.NewStore()

	eng, err := mortar.New("", mortar.WithLoader(loader))
	require.NoError(t, err)
	require.NoError(t, eng.Start(ctx, "save.mortared", "A"))
	_, _ = eng.Render(ctx)
	eng.Advance(ctx)

	snap, err := eng.Snapshot()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "s1", snap))

	other, err := mortar.New("", mortar.WithLoader(loader))
	require.NoError(t, err)
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, other.Restore(ctx, loaded))

	view, ok := other.Render(ctx)
	require.True(t, ok)
	assert.Equal(t, "Two", view.Body)
	other.Advance(ctx)
	view, _ = other.Render(ctx)
	assert.Equal(t, "Gold 3", view.Body)
}

func TestFacade_Options(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	fns := registry.New()
	fns.Register("greet", func(args []value.Value) value.Value {
		return value.String("hey")
	})

	var entered []string
	b := dsl.New("opts.mortared")
	b.Add("A").Text("{greet()}")
	loader, err := b.Build()
	require.NoError(t, err)

	eng, err := mortar.New("studio",
		mortar.WithLoader(loader),
		mortar.WithRegistry(fns),
		mortar.WithLogger(logging.NewWithWriter(&buf, slog.LevelDebug)),
		mortar.WithHeader(func(path, node string) string { return node + ": " }),
		mortar.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
				entered = append(entered, e.Node)
			},
		}),
	)
	require.NoError(t, err)
	assert.Same(t, loader, eng.Loader())

	require.NoError(t, eng.Start(ctx, "opts.mortared", "A"))
	view, _ := eng.Render(ctx)
	assert.Equal(t, "A: ", view.Header)
	assert.Equal(t, "hey", view.Body)
	assert.Equal(t, []string{"A"}, entered)
	assert.Contains(t, buf.String(), "assets=studio")

	eng.SetVariable("x", value.Number(2))
	v, ok := eng.Variable("x")
	require.True(t, ok)
	assert.Equal(t, value.Number(2), v)

	eng.Stop(ctx)
	assert.False(t, eng.Active())
	_, err = eng.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNoSession)
}
