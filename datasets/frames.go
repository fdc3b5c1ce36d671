package datasets

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Frame is one decoded capture. Pix holds Width*Height interleaved R,G,B
// values in [0,1], row-major from the top-left pixel.
type Frame struct {
	Path   string
	Width  int
	Height int
	Pix    []float32
}

// At returns the RGB value of pixel (x, y).
func (f Frame) At(x, y int) (r, g, b float32) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func (f Frame) clone() Frame {
	f.Pix = append([]float32(nil), f.Pix...)
	return f
}

// FrameOrderKey is the key frames are sorted by: the file's base name,
// compared lexicographically. Row i of a calibration file belongs to the i-th
// frame in this order.
func FrameOrderKey(path string) string {
	return filepath.Base(path)
}

// FrameOptions controls LoadFrames.
type FrameOptions struct {
	// Workers bounds parallel decoding. 0 uses runtime.NumCPU(); 1 decodes
	// sequentially. The output order never depends on this value.
	Workers int
	// Logger receives progress messages; the zero Logger discards them.
	Logger logr.Logger
}

// LoadFrames decodes every image in dir matching pattern, ordered by
// FrameOrderKey. It returns a *NotFoundError when dir is missing or nothing
// matches.
func LoadFrames(dir, pattern string, opts FrameOptions) ([]Frame, error) {
	if err := requireDir("frame directory", dir); err != nil {
		return nil, err
	}

	paths, err := globImages(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &NotFoundError{What: "frames", Path: filepath.Join(dir, pattern)}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	frames := make([]Frame, len(paths))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fr, err := decodeFrame(p)
			if err != nil {
				return err
			}
			frames[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.Logger.Info("Loaded frames", "count", len(frames), "dir", dir,
		"width", frames[0].Width, "height", frames[0].Height)
	return frames, nil
}

func decodeFrame(path string) (Frame, error) {
	img, err := decodeFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Frame{}, &NotFoundError{What: "frame", Path: path, Err: err}
		}
		return Frame{}, err
	}
	fr := Frame{Path: path}
	fr.Width, fr.Height, fr.Pix = rgbPixels(img)
	return fr, nil
}

// rgbPixels converts img to un-premultiplied RGB in [0,1].
func rgbPixels(img image.Image) (w, h int, pix []float32) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]float32, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			pix = append(pix,
				float32(c.R)/0xffff,
				float32(c.G)/0xffff,
				float32(c.B)/0xffff,
			)
		}
	}
	return w, h, pix
}
