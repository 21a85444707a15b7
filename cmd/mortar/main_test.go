package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mortar version")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--dir", "../../testdata/assets")
	require.NoError(t, err)
	assert.Contains(t, out, "intro.mortared")
}

func TestValidateCommand_Broken(t *testing.T) {
	dir := t.TempDir()
	program := `{"nodes":[{"name":"Start","next":"Nowhere","content":[{"type":"text","value":"Hi"}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mortared"), []byte(program), 0644))

	out, err := execute(t, "validate", "--dir", dir)
	assert.Error(t, err)
	assert.Contains(t, out, "Nowhere")
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "intro.mortared", "--dir", "../../testdata/assets")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "Start")
}
