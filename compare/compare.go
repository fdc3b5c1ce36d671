// Package compare renders before/after diagnostics for one frame of two
// dataset records, e.g. before and after a white balance correction.
//
// Records are only read through their copying accessors, so a comparison can
// never change either record.
package compare

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"

	"github.com/Noofbiz/photostereo/datasets"
)

// Options controls Frames.
type Options struct {
	// OutDir receives the PNG outputs; it is created if missing. Empty
	// means only statistics are computed.
	OutDir string
	// MaxPanelWidth downscales the side-by-side panel when it is wider
	// (0 keeps full resolution).
	MaxPanelWidth int
	// HistogramBins over [0,1]; 0 means 256.
	HistogramBins int
	Logger        logr.Logger
}

// ChannelStats summarizes one color channel.
type ChannelStats struct {
	Mean   float64
	StdDev float64
}

// Report is the result of comparing one frame.
type Report struct {
	Frame int
	// Before and After hold R, G, B statistics.
	Before [3]ChannelStats
	After  [3]ChannelStats
	// MeanAbsDiff is the mean |after - before| per channel.
	MeanAbsDiff [3]float64

	PanelPath     string
	HistogramPath string
}

var channelNames = [3]string{"Red", "Green", "Blue"}

// Frames compares frame i of before and after.
func Frames(before, after *datasets.Record, frame int, opts Options) (*Report, error) {
	if before == nil || after == nil {
		return nil, errors.New("compare: nil record")
	}
	b, err := before.Frame(frame)
	if err != nil {
		return nil, fmt.Errorf("before: %w", err)
	}
	a, err := after.Frame(frame)
	if err != nil {
		return nil, fmt.Errorf("after: %w", err)
	}
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("frame %d resolution differs: before %dx%d, after %dx%d",
			frame, b.Width, b.Height, a.Width, a.Height)
	}
	bins := opts.HistogramBins
	if bins <= 0 {
		bins = 256
	}

	rep := &Report{Frame: frame}
	for c := range 3 {
		bc, ac := channel(b.Pix, c), channel(a.Pix, c)
		rep.Before[c] = channelStats(bc)
		rep.After[c] = channelStats(ac)
		rep.MeanAbsDiff[c] = meanAbsDiff(bc, ac)
	}

	if opts.OutDir == "" {
		return rep, nil
	}
	if err := ensureDir(opts.OutDir); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	rep.PanelPath = filepath.Join(opts.OutDir, fmt.Sprintf("compare_frame_%04d.png", frame))
	if err := writePanel(rep.PanelPath, b, a, opts.MaxPanelWidth); err != nil {
		return nil, err
	}
	rep.HistogramPath = filepath.Join(opts.OutDir, fmt.Sprintf("histogram_frame_%04d.png", frame))
	if err := plotHistograms(rep.HistogramPath, b, a, frame, bins); err != nil {
		return nil, fmt.Errorf("failed to generate plot: %w", err)
	}

	opts.Logger.Info("Comparison written", "frame", frame, "panel", rep.PanelPath, "histogram", rep.HistogramPath)
	return rep, nil
}

func channel(pix []float32, c int) []float64 {
	out := make([]float64, 0, len(pix)/3)
	for i := c; i < len(pix); i += 3 {
		out = append(out, float64(pix[i]))
	}
	return out
}

func channelStats(x []float64) ChannelStats {
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		std = 0
	}
	return ChannelStats{Mean: mean, StdDev: std}
}

func meanAbsDiff(a, b []float64) float64 {
	d := make([]float64, len(a))
	for i := range a {
		d[i] = math.Abs(b[i] - a[i])
	}
	return stat.Mean(d, nil)
}

// Histogram counts values in [0,1] into bins equal-width bins. Values
// outside the range land in the first or last bin.
func Histogram(values []float64, bins int) []float64 {
	counts := make([]float64, bins)
	for _, v := range values {
		i := int(v * float64(bins))
		i = max(0, min(bins-1, i))
		counts[i]++
	}
	return counts
}

// Panel lays out before | after | |after-before| at full resolution.
func Panel(before, after datasets.Frame) *image.NRGBA {
	w, h := before.Width, before.Height
	img := image.NewNRGBA(image.Rect(0, 0, 3*w, h))
	for y := range h {
		for x := range w {
			br, bg, bb := before.At(x, y)
			ar, ag, ab := after.At(x, y)
			img.SetNRGBA(x, y, toNRGBA(br, bg, bb))
			img.SetNRGBA(w+x, y, toNRGBA(ar, ag, ab))
			img.SetNRGBA(2*w+x, y, toNRGBA(abs32(ar-br), abs32(ag-bg), abs32(ab-bb)))
		}
	}
	return img
}

func writePanel(path string, before, after datasets.Frame, maxWidth int) error {
	var img image.Image = Panel(before, after)
	if b := img.Bounds(); maxWidth > 0 && b.Dx() > maxWidth {
		h := max(1, b.Dy()*maxWidth/b.Dx())
		dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, h))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode panel: %w", err)
	}
	return f.Close()
}

func toNRGBA(r, g, b float32) color.NRGBA {
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(max(0, min(1, v))) * 255))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func ensureDir(path string) error {
	// Attempt to create directory if it doesn't exist (silently succeed if present).
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
