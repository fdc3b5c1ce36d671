package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, root string, n int, level uint8) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "masks"), 0o755))

	save := func(path string, img image.Image) {
		f, err := os.Create(path)
		require.NoError(t, err)
		defer f.Close()
		require.NoError(t, png.Encode(f, img))
	}
	for i := range n {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
		for y := range 3 {
			for x := range 4 {
				img.SetNRGBA(x, y, color.NRGBA{R: level, G: uint8(10 * i), B: 200, A: 255})
			}
		}
		save(filepath.Join(root, fmt.Sprintf("frame_%03d.png", i)), img)
	}
	mask := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	save(filepath.Join(root, "masks", "object_mask.png"), mask)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(logr.Discard())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	writeCapture(t, root, 3, 100)

	out, err := run(t, "inspect", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Light source: geometric")
	assert.Contains(t, out, "Images: (3, 3, 4, 3)")
	assert.Contains(t, out, "light[2]")
	assert.NotContains(t, out, "more")
}

func TestInspectMissingRoot(t *testing.T) {
	_, err := run(t, "inspect", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestFramesWritesPlots(t *testing.T) {
	before, after := t.TempDir(), t.TempDir()
	writeCapture(t, before, 2, 50)
	writeCapture(t, after, 2, 150)
	outDir := filepath.Join(t.TempDir(), "plots")

	out, err := run(t, "frames", before, after, "--frame", "1", "--out", outDir, "--max-width", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Frame 1")
	assert.FileExists(t, filepath.Join(outDir, "compare_frame_0001.png"))
	assert.FileExists(t, filepath.Join(outDir, "histogram_frame_0001.png"))
}

func TestFramesOutOfRange(t *testing.T) {
	before, after := t.TempDir(), t.TempDir()
	writeCapture(t, before, 2, 50)
	writeCapture(t, after, 2, 150)

	_, err := run(t, "frames", before, after, "--frame", "7", "--out", t.TempDir())
	require.Error(t, err)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 2, "unit_tolerance": 0.01}`), 0o644))

	rf := rootFlags{configPath: path, workers: -1}
	cfg, err := rf.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.InDelta(t, 0.01, cfg.UnitTolerance, 1e-12)

	rf = rootFlags{configPath: path, workers: 6, tolerance: 0.5}
	cfg, err = rf.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers)
	assert.InDelta(t, 0.5, cfg.UnitTolerance, 1e-12)

	rf = rootFlags{workers: -1}
	cfg, err = rf.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
}
