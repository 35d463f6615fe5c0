package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), "agstore %v: %s", args, out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "data")

	run(t, "--store", store, "generate", "--kind", "scenario", "--id", "scenario")
	run(t, "--store", store, "generate", "--id", "network", "--vertices", "30", "--transactions", "60", "--seed", "7")

	out := run(t, "--store", store, "list")
	assert.Equal(t, "network\nscenario\n", out)

	out = run(t, "--store", store, "info", "network")
	assert.Contains(t, out, "vertex attributes")
	assert.Contains(t, out, "Identifier")

	out = run(t, "--store", store, "matrix", "--kind", "laplacian", "scenario")
	assert.NotEmpty(t, out)

	arrowFile := filepath.Join(dir, "network.arrow")
	out = run(t, "--store", store, "export", "--type", "vertex", "--out", arrowFile, "network")
	assert.Contains(t, out, "wrote 30 vertex rows")
	info, err := os.Stat(arrowFile)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestUnknownGraph(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--store", t.TempDir(), "info", "missing"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestUnknownMatrix(t *testing.T) {
	store := t.TempDir()
	run(t, "--store", store, "generate", "--kind", "scenario", "--id", "s")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--store", store, "matrix", "--kind", "bogus", "s"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
