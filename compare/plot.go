package compare

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/photostereo/datasets"
)

var channelColors = [3]color.NRGBA{
	{R: 200, G: 30, B: 30, A: 255},
	{R: 30, G: 150, B: 30, A: 255},
	{R: 20, G: 80, B: 200, A: 255},
}

// plotHistograms writes per-channel histograms of both frames: before as
// dashed semi-transparent lines, after as solid lines.
func plotHistograms(path string, before, after datasets.Frame, frame, bins int) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Channel histograms, frame %d: before (dashed), after (solid)", frame)
	p.X.Label.Text = "Pixel value"
	p.Y.Label.Text = "Frequency"
	p.X.Min = 0
	p.X.Max = 1

	for c := range 3 {
		for _, side := range []struct {
			name   string
			frame  datasets.Frame
			dashed bool
		}{{"before", before, true}, {"after", after, false}} {
			line, err := plotter.NewLine(histogramXYs(Histogram(channel(side.frame.Pix, c), bins)))
			if err != nil {
				return err
			}
			col := channelColors[c]
			line.Width = vg.Points(1.5)
			if side.dashed {
				col.A = 128
				line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			}
			line.Color = col
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("%s %s", channelNames[c], side.name), line)
		}
	}
	p.Add(plotter.NewGrid())

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// histogramXYs places each count at its bin center.
func histogramXYs(counts []float64) plotter.XYs {
	xys := make(plotter.XYs, len(counts))
	width := 1 / float64(len(counts))
	for i, n := range counts {
		xys[i] = plotter.XY{X: (float64(i) + 0.5) * width, Y: n}
	}
	return xys
}
