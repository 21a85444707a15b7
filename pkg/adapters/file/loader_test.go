package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/mortar/pkg/adapters/file"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
	"github.com/aretw0/mortar/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.ProgramLoader = (*file.Loader)(nil)
	_ ports.ProgramLister = (*file.Loader)(nil)
)

func TestLoader_Contract(t *testing.T) {
	loader := file.NewLoader(filepath.Join("testdata", "programs"))
	tests.ProgramLoaderContractTest(t, loader, map[string]string{
		"intro.mortared":       "Start",
		"chapters/forest.yaml": "Clearing",
	})
}

func TestLoader_DecodesJSON(t *testing.T) {
	loader := file.NewLoader(filepath.Join("testdata", "programs"))

	p, err := loader.Load(context.Background(), "intro.mortared")
	require.NoError(t, err)

	require.Len(t, p.Nodes, 2)
	start := p.Nodes[0]
	require.Len(t, start.Content, 3)
	assert.Equal(t, domain.ContentRunEvent, start.Content[0].Type)
	assert.Equal(t, "door", start.Content[0].Name)

	text := start.Content[1]
	require.Len(t, text.InterpolatedParts, 3)
	assert.Equal(t, domain.PartPlaceholder, text.InterpolatedParts[1].Type)
	assert.Equal(t, "{name}", text.InterpolatedParts[1].Content)
	require.Len(t, text.Events, 1)
	assert.Equal(t, 5.0, text.Events[0].Index)

	choice := start.Content[2]
	require.Len(t, choice.Options, 2)
	assert.Equal(t, domain.ChoiceActionReturn, choice.Options[1].Action)

	def, ok := p.EventDef("door")
	require.True(t, ok)
	assert.Equal(t, "play_sound", def.Action.Type)
	require.NotNil(t, def.Duration)
	assert.Equal(t, 0.5, *def.Duration)
}

func TestLoader_DecodesYAML(t *testing.T) {
	loader := file.NewLoader(filepath.Join("testdata", "programs"))

	p, err := loader.Load(context.Background(), "chapters/forest.yaml")
	require.NoError(t, err)

	node, ok := p.Node("Clearing")
	require.True(t, ok)
	assert.Equal(t, "Start", node.Next)
	require.NotNil(t, node.Content[0].Condition)
	assert.Equal(t, domain.ConditionIdentifier, node.Content[0].Condition.Type)
	assert.Equal(t, true, p.Variables[0].Value)

	tl, ok := p.Timeline("dusk")
	require.True(t, ok)
	require.Len(t, tl.Statements, 1)
	assert.Equal(t, domain.TimelineWait, tl.Statements[0].Type)
	assert.Equal(t, 1.0, *tl.Statements[0].Duration)
}

func TestLoader_Errors(t *testing.T) {
	ctx := context.Background()
	loader := file.NewLoader("testdata")

	_, err := loader.Load(ctx, "broken.json")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProgramNotFound)

	_, err = loader.Load(ctx, "../loader.go")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)

	_, err = loader.Load(ctx, "")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)
}

func TestLoader_PicksUpNewFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	loader := file.NewLoader(dir)

	_, err := loader.Load(ctx, "late.json")
	require.ErrorIs(t, err, domain.ErrProgramNotFound)

	data, err := domain.EncodeProgram(&domain.Program{Nodes: []domain.Node{{Name: "Late"}}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.json"), data, 0o644))

	p, err := loader.Load(ctx, "late.json")
	require.NoError(t, err)
	assert.Equal(t, "Late", p.Nodes[0].Name)

	paths, err := loader.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"late.json"}, paths)
}

func TestLoader_ListMissingDir(t *testing.T) {
	loader := file.NewLoader(filepath.Join(t.TempDir(), "nope"))
	paths, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, paths)
}
