package datasets

import (
	"errors"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/photostereo/lights"
)

// AssembleInput gathers the pieces of a record.
type AssembleInput struct {
	Frames []Frame
	Mask   Mask
	Source LightSource
	// GTNormal is optional; nil yields an all-zero map at frame resolution.
	GTNormal *NormalMap
}

// AssembleOptions controls Assemble.
type AssembleOptions struct {
	// UnitTolerance bounds |‖d‖-1| for every light direction. 0 means
	// DefaultUnitTolerance.
	UnitTolerance float64
	Logger        logr.Logger
}

// Assemble pulls lighting from in.Source, converts directions to the internal
// convention, fills defaults and validates the result. On failure it returns
// a nil record: the error from the source unchanged, or a *ValidationError for
// the first broken invariant.
//
// Invariants are checked in this order: frame-order, dimensions, frame-count,
// finite-values, unit-directions, intensity-positive.
func Assemble(in AssembleInput, opts AssembleOptions) (*Record, error) {
	tol := opts.UnitTolerance
	if tol <= 0 {
		tol = DefaultUnitTolerance
	}
	if len(in.Frames) == 0 {
		return nil, invalid(InvariantFrameCount, "no frames")
	}
	if in.Source == nil {
		return nil, errors.New("assemble: no light source")
	}

	raw, err := in.Source.Directions(in.Frames)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, invalid(InvariantFrameCount, "light source %s returned no directions", in.Source.Name())
	}
	if rows, cols := raw.Dims(); cols != 3 {
		return nil, invalid(InvariantFrameCount, "%d frames but %dx%d light directions", len(in.Frames), rows, cols)
	}
	dirs := lights.FlipYZ(raw)

	ints, err := in.Source.Intensities(in.Frames)
	if err != nil {
		return nil, err
	}
	if ints == nil {
		ints = ones(len(in.Frames), 3)
	} else {
		ints = mat.DenseCopyOf(ints)
	}

	w, h := in.Frames[0].Width, in.Frames[0].Height
	var normal NormalMap
	if in.GTNormal != nil {
		normal = in.GTNormal.clone()
	} else {
		normal = ZeroNormalMap(w, h)
	}

	rec := &Record{
		frames: make([]Frame, len(in.Frames)),
		mask:   in.Mask.clone(),
		dirs:   dirs,
		ints:   ints,
		normal: normal,
		source: in.Source.Name(),
	}
	for i, f := range in.Frames {
		rec.frames[i] = f.clone()
	}

	if err := rec.validate(tol); err != nil {
		return nil, err
	}

	opts.Logger.Info("Dataset assembled",
		"images", []int{len(rec.frames), h, w, 3},
		"mask", []int{rec.mask.Height, rec.mask.Width},
		"lightDirection", []int{rec.Len(), 3},
		"lightIntensity", []int{rec.Len(), 3},
		"source", rec.source)
	return rec, nil
}

func ones(r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(r, c, data)
}

func (r *Record) validate(tol float64) error {
	checks := []func() error{
		r.checkFrameOrder,
		r.checkDimensions,
		r.checkFrameCount,
		r.checkFinite,
		func() error { return r.checkUnit(tol) },
		r.checkIntensityPositive,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// checkFrameOrder requires strictly increasing order keys. Frames built in
// memory without a Path carry no key and keep the order they were given in.
func (r *Record) checkFrameOrder() error {
	for i := 1; i < len(r.frames); i++ {
		prev, cur := r.frames[i-1].Path, r.frames[i].Path
		if prev == "" || cur == "" {
			continue
		}
		if FrameOrderKey(prev) >= FrameOrderKey(cur) {
			return invalid(InvariantFrameOrder, "frame %d (%s) does not sort after frame %d (%s)",
				i, FrameOrderKey(cur), i-1, FrameOrderKey(prev))
		}
	}
	return nil
}

func (r *Record) checkDimensions() error {
	w, h := r.frames[0].Width, r.frames[0].Height
	if w <= 0 || h <= 0 {
		return invalid(InvariantDimensions, "frame 0 is empty (%dx%d)", w, h)
	}
	for i, f := range r.frames {
		if f.Width != w || f.Height != h {
			return invalid(InvariantDimensions, "frame %d is %dx%d, frame 0 is %dx%d", i, f.Width, f.Height, w, h)
		}
		if len(f.Pix) != w*h*3 {
			return invalid(InvariantDimensions, "frame %d has %d values, expected %d", i, len(f.Pix), w*h*3)
		}
	}
	if r.mask.Width != w || r.mask.Height != h || len(r.mask.Pix) != w*h {
		return invalid(InvariantDimensions, "mask is %dx%d, frames are %dx%d", r.mask.Width, r.mask.Height, w, h)
	}
	if r.normal.Width != w || r.normal.Height != h || len(r.normal.Pix) != w*h*3 {
		return invalid(InvariantDimensions, "normal map is %dx%d, frames are %dx%d", r.normal.Width, r.normal.Height, w, h)
	}
	return nil
}

func (r *Record) checkFrameCount() error {
	n := len(r.frames)
	if rows, cols := r.dirs.Dims(); rows != n || cols != 3 {
		return invalid(InvariantFrameCount, "%d frames but %dx%d light directions", n, rows, cols)
	}
	if rows, cols := r.ints.Dims(); rows != n || cols != 3 {
		return invalid(InvariantFrameCount, "%d frames but %dx%d light intensities", n, rows, cols)
	}
	return nil
}

func (r *Record) checkFinite() error {
	for _, named := range []struct {
		name string
		m    *mat.Dense
	}{{"direction", r.dirs}, {"intensity", r.ints}} {
		name, m := named.name, named.m
		rows, _ := m.Dims()
		for i := range rows {
			for _, v := range m.RawRowView(i) {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return invalid(InvariantFiniteValues, "light %s %d is %v", name, i, m.RawRowView(i))
				}
			}
		}
	}
	return nil
}

func (r *Record) checkUnit(tol float64) error {
	for i := range len(r.frames) {
		n := mat.Norm(r.dirs.RowView(i), 2)
		if math.Abs(n-1) > tol {
			return invalid(InvariantUnitDirections, "light direction %d has length %g", i, n)
		}
	}
	return nil
}

func (r *Record) checkIntensityPositive() error {
	for i := range len(r.frames) {
		for _, v := range r.ints.RawRowView(i) {
			if v <= 0 {
				return invalid(InvariantIntensityPositive, "light intensity %d is %v", i, r.ints.RawRowView(i))
			}
		}
	}
	return nil
}
