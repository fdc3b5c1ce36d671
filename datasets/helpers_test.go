package datasets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/photostereo/lights"
)

// writePNG writes a w×h image filled with c.
func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writeGrayPNG writes a w×h single-channel image filled with v.
func writeGrayPNG(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writeMatrix writes m as calibration text, one row per line.
func writeMatrix(t *testing.T, path string, m mat.Matrix) {
	t.Helper()
	r, c := m.Dims()
	var sb strings.Builder
	for i := range r {
		for j := range c {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		sb.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
}

// axesMajor returns a 4×n calibration matrix whose first three rows are unit
// directions (columns) and whose fourth row is filler.
func axesMajor(t *testing.T, n int) *mat.Dense {
	t.Helper()
	dirs, err := lights.Hemisphere(n)
	require.NoError(t, err)
	raw := mat.NewDense(4, n, nil)
	for i := range n {
		for k := range 3 {
			raw.Set(k, i, dirs.At(i, k))
		}
		raw.Set(3, i, 7)
	}
	return raw
}

// frameColor gives frame i a distinct red channel.
func frameColor(i int) color.NRGBA {
	return color.NRGBA{R: uint8(10 * (i + 1)), G: 128, B: 255, A: 255}
}

// makeUnlabeled builds a layout A capture with n frames of w×h.
func makeUnlabeled(t *testing.T, n, w, h int) string {
	t.Helper()
	root := t.TempDir()
	for i := range n {
		writePNG(t, filepath.Join(root, "frame_"+pad4(i)+".png"), w, h, frameColor(i))
	}
	writeGrayPNG(t, filepath.Join(root, "masks", "object_mask.png"), w, h, 255)
	return root
}

// makeLabeled builds a layout B capture with n frames and the given
// calibration matrix.
func makeLabeled(t *testing.T, n, w, h int, calib mat.Matrix) string {
	t.Helper()
	root := t.TempDir()
	for i := range n {
		writePNG(t, filepath.Join(root, "Object", "Image_"+pad4(i)+".png"), w, h, frameColor(i))
	}
	writeGrayPNG(t, filepath.Join(root, "mask.png"), w, h, 255)
	if calib != nil {
		writeMatrix(t, filepath.Join(root, "light_directions.txt"), calib)
	}
	return root
}

func pad4(i int) string {
	s := strconv.Itoa(i)
	return strings.Repeat("0", 4-len(s)) + s
}
