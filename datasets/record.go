package datasets

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Record is a validated photometric stereo dataset. It is immutable: every
// accessor returns a copy, so callers (including visualization code) cannot
// change the record they were handed.
type Record struct {
	frames []Frame
	mask   Mask
	dirs   *mat.Dense
	ints   *mat.Dense
	normal NormalMap
	source string
}

// Len returns the number of frames.
func (r *Record) Len() int { return len(r.frames) }

// Width returns the frame width in pixels.
func (r *Record) Width() int { return r.frames[0].Width }

// Height returns the frame height in pixels.
func (r *Record) Height() int { return r.frames[0].Height }

// Source names the light source that produced the directions.
func (r *Record) Source() string { return r.source }

// Images returns copies of all frames in frame order.
func (r *Record) Images() []Frame {
	out := make([]Frame, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.clone()
	}
	return out
}

// Frame returns a copy of frame i.
func (r *Record) Frame(i int) (Frame, error) {
	if i < 0 || i >= len(r.frames) {
		return Frame{}, fmt.Errorf("frame %d out of range [0, %d)", i, len(r.frames))
	}
	return r.frames[i].clone(), nil
}

// Mask returns a copy of the object mask.
func (r *Record) Mask() Mask { return r.mask.clone() }

// LightDirection returns a copy of the N×3 unit light directions, in the
// optimizer's axis convention.
func (r *Record) LightDirection() *mat.Dense { return mat.DenseCopyOf(r.dirs) }

// LightIntensity returns a copy of the N×3 light intensities.
func (r *Record) LightIntensity() *mat.Dense { return mat.DenseCopyOf(r.ints) }

// GTNormal returns a copy of the ground-truth normal map (zeros when the
// dataset has none).
func (r *Record) GTNormal() NormalMap { return r.normal.clone() }

// SizeBytes is the in-memory size of the record's sample data.
func (r *Record) SizeBytes() uint64 {
	const f32, f64 = 4, 8
	var n uint64
	for _, f := range r.frames {
		n += uint64(len(f.Pix)) * f32
	}
	n += uint64(len(r.mask.Pix)+len(r.normal.Pix)) * f32
	n += uint64(2*len(r.frames)*3) * f64
	return n
}

// Example returns frame i's pixels and its lighting label
// [dx, dy, dz, ix, iy, iz].
func (r *Record) Example(i int) (inputs []float32, labels []float32, err error) {
	if i < 0 || i >= len(r.frames) {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", i, len(r.frames))
	}
	inputs = append([]float32(nil), r.frames[i].Pix...)
	labels = make([]float32, 6)
	for k := range 3 {
		labels[k] = float32(r.dirs.At(i, k))
		labels[3+k] = float32(r.ints.At(i, k))
	}
	return inputs, labels, nil
}

// Batch reads multiple examples by index.
func (r *Record) Batch(indices []int) ([][]float32, [][]float32, error) {
	inputs := make([][]float32, len(indices))
	labels := make([][]float32, len(indices))
	for pos, idx := range indices {
		in, lab, err := r.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		inputs[pos] = in
		labels[pos] = lab
	}
	return inputs, labels, nil
}

var _ Dataset = (*Record)(nil)
