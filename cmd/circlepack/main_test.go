package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/circle-packer/internal/packing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--log-level=error"}, args...), &out)
	return out.String(), err
}

func TestPackJSONDefaults(t *testing.T) {
	out, err := runCLI(t, "pack")
	require.NoError(t, err)

	var got packOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, packing.PatternTriangular, got.Request.Pattern)
	assert.Equal(t, 51, got.Result.Count)
	assert.Equal(t, 3, got.Result.NumRows)
	assert.Len(t, got.Result.Circles, got.Result.Count)
}

func TestPackPresetAndOverrides(t *testing.T) {
	out, err := runCLI(t, "pack", "--preset", "tri-optimal")
	require.NoError(t, err)

	var got packOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Request.Optimize)
	assert.Equal(t, 64, got.Result.Count)

	out, err = runCLI(t, "pack", "--pattern", "rectangular", "--mode", "full", "-H", "40")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, packing.ModeSpread, got.Request.Mode)
	assert.Equal(t, 17, got.Result.Count)
	assert.True(t, got.Result.Spread)
}

func TestPackOptimizeImpliesSpread(t *testing.T) {
	out, err := runCLI(t, "pack", "--optimize")
	require.NoError(t, err)

	var got packOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, packing.ModeSpread, got.Request.Mode)
	assert.True(t, got.Result.Spread)
	assert.Equal(t, 64, got.Result.Count)

	_, err = runCLI(t, "pack", "--optimize", "--mode", "tight")
	assert.ErrorIs(t, err, packing.ErrOptimizeTight)
}

func TestPackZeroAngleClamps(t *testing.T) {
	out, err := runCLI(t, "pack", "--angle", "0")
	require.NoError(t, err)

	var got packOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Result.Angle)
	assert.InDelta(t, 30, *got.Result.Angle, 1e-9)
}

func TestPackErrors(t *testing.T) {
	_, err := runCLI(t, "pack", "--preset", "hex")
	assert.ErrorIs(t, err, packing.ErrUnknownPreset)

	_, err = runCLI(t, "pack", "--diameter=-3")
	assert.ErrorIs(t, err, packing.ErrInvalidInputs)

	var cfgErr *packing.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "diameter", cfgErr.Field)

	_, err = runCLI(t, "pack", "--pattern", "square")
	assert.Error(t, err)

	_, err = runCLI(t, "pack", "--format", "gif")
	assert.Error(t, err)
}

func TestPackWritesFiles(t *testing.T) {
	dir := t.TempDir()

	testCases := map[string]string{
		"layout.svg":  "<svg",
		"layout.pdf":  "%PDF",
		"layout.dxf":  "SECTION",
		"layout.json": `"result"`,
	}

	for name, marker := range testCases {
		path := filepath.Join(dir, name)
		out, err := runCLI(t, "pack", "--preset", "rect-tight", "-o", path)
		require.NoError(t, err, name)
		assert.Empty(t, out, "file output must not write to stdout")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), marker, name)
	}
}

func TestPackStreamsExportToStdout(t *testing.T) {
	out, err := runCLI(t, "pack", "--format", "SVG", "--name", "demo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "demo")

	out, err = runCLI(t, "pack", "--format", "png", "--preview-size", "64")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "\x89PNG"))
}

func TestPresetsCommand(t *testing.T) {
	out, err := runCLI(t, "presets")
	require.NoError(t, err)
	for _, p := range packing.Presets() {
		assert.Contains(t, out, string(p))
	}
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "json", packOptions{output: "-"}.resolveFormat())
	assert.Equal(t, "xlsx", packOptions{output: "out/Sheet.XLSX"}.resolveFormat())
	assert.Equal(t, "pdf", packOptions{format: "PDF", output: "out.svg"}.resolveFormat())
	assert.Equal(t, "json", packOptions{output: "noext"}.resolveFormat())
}
