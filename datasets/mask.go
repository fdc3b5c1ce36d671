package datasets

import (
	"errors"
	"image/color"
	"io/fs"
)

// Mask is a single-channel object mask with values in [0,1].
type Mask struct {
	Path   string
	Width  int
	Height int
	Pix    []float32
}

// At returns the mask value at (x, y).
func (m Mask) At(x, y int) float32 {
	return m.Pix[y*m.Width+x]
}

func (m Mask) clone() Mask {
	m.Pix = append([]float32(nil), m.Pix...)
	return m
}

// LoadMask decodes a mask image as luminance scaled to [0,1].
func LoadMask(path string) (Mask, error) {
	img, err := decodeFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Mask{}, &NotFoundError{What: "mask", Path: path, Err: err}
		}
		return Mask{}, err
	}

	b := img.Bounds()
	m := Mask{Path: path, Width: b.Dx(), Height: b.Dy()}
	m.Pix = make([]float32, 0, m.Width*m.Height)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			m.Pix = append(m.Pix, float32(g.Y)/0xffff)
		}
	}
	return m, nil
}

// NormalMap is a per-pixel surface normal image: Width*Height interleaved
// x,y,z components.
type NormalMap struct {
	Width  int
	Height int
	Pix    []float32
}

// ZeroNormalMap returns the all-zero placeholder used when no ground truth is
// available.
func ZeroNormalMap(width, height int) NormalMap {
	return NormalMap{Width: width, Height: height, Pix: make([]float32, width*height*3)}
}

// At returns the normal at (x, y).
func (n NormalMap) At(x, y int) (nx, ny, nz float32) {
	i := (y*n.Width + x) * 3
	return n.Pix[i], n.Pix[i+1], n.Pix[i+2]
}

func (n NormalMap) clone() NormalMap {
	n.Pix = append([]float32(nil), n.Pix...)
	return n
}

// LoadNormalMap decodes a normal map stored as an RGB image where each
// channel c encodes the component 2c-1.
func LoadNormalMap(path string) (NormalMap, error) {
	img, err := decodeFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NormalMap{}, &NotFoundError{What: "normal map", Path: path, Err: err}
		}
		return NormalMap{}, err
	}
	var n NormalMap
	n.Width, n.Height, n.Pix = rgbPixels(img)
	for i, c := range n.Pix {
		n.Pix[i] = 2*c - 1
	}
	return n, nil
}
