package datasets

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/photostereo/lights"
)

// fixedSource returns preset matrices.
type fixedSource struct {
	dirs, ints *mat.Dense
	err        error
}

func (fixedSource) Name() string { return "fixed" }

func (s fixedSource) Directions([]Frame) (*mat.Dense, error) { return s.dirs, s.err }

func (s fixedSource) Intensities([]Frame) (*mat.Dense, error) { return s.ints, nil }

func memFrames(n, w, h int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Width: w, Height: h, Pix: make([]float32, w*h*3)}
		frames[i].Pix[0] = float32(i)
	}
	return frames
}

func memMask(w, h int) Mask {
	return Mask{Width: w, Height: h, Pix: make([]float32, w*h)}
}

func unitDirs(t *testing.T, n int) *mat.Dense {
	t.Helper()
	d, err := lights.Hemisphere(n)
	require.NoError(t, err)
	return d
}

func requireInvariant(t *testing.T, err error, want Invariant) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, want, ve.Invariant, ve.Error())
}

func TestAssembleDefaults(t *testing.T) {
	rec, err := Assemble(AssembleInput{
		Frames: memFrames(4, 3, 2),
		Mask:   memMask(3, 2),
		Source: GeometricLightSource{},
	}, AssembleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, rec.Len())
	assert.Equal(t, SourceGeometric, rec.Source())

	ints := rec.LightIntensity()
	r, c := ints.Dims()
	assert.Equal(t, []int{4, 3}, []int{r, c})
	for i := range r {
		assert.Equal(t, []float64{1, 1, 1}, ints.RawRowView(i))
	}

	n := rec.GTNormal()
	assert.Equal(t, 3, n.Width)
	assert.Equal(t, 2, n.Height)
	assert.Equal(t, make([]float32, 3*2*3), n.Pix)
}

func TestAssembleFlipsDirectionsOnce(t *testing.T) {
	raw := unitDirs(t, 3)
	rec, err := Assemble(AssembleInput{
		Frames: memFrames(3, 2, 2),
		Mask:   memMask(2, 2),
		Source: fixedSource{dirs: raw},
	}, AssembleOptions{})
	require.NoError(t, err)

	got := rec.LightDirection()
	for i := range 3 {
		assert.Equal(t, raw.At(i, 0), got.At(i, 0))
		assert.Equal(t, -raw.At(i, 1), got.At(i, 1))
		assert.Equal(t, -raw.At(i, 2), got.At(i, 2))
	}
	// the source's matrix is left alone
	assert.True(t, mat.Equal(raw, unitDirs(t, 3)))
}

func TestAssembleValidation(t *testing.T) {
	w, h := 3, 2
	cases := []struct {
		name string
		in   func() AssembleInput
		want Invariant
	}{
		{
			name: "direction rows differ from frame count",
			in: func() AssembleInput {
				return AssembleInput{Frames: memFrames(5, w, h), Mask: memMask(w, h), Source: fixedSource{dirs: unitDirs(t, 4)}}
			},
			want: InvariantFrameCount,
		},
		{
			name: "intensity rows differ from frame count",
			in: func() AssembleInput {
				return AssembleInput{Frames: memFrames(2, w, h), Mask: memMask(w, h),
					Source: fixedSource{dirs: unitDirs(t, 2), ints: ones(3, 3)}}
			},
			want: InvariantFrameCount,
		},
		{
			name: "direction matrix is not N×3",
			in: func() AssembleInput {
				return AssembleInput{Frames: memFrames(2, w, h), Mask: memMask(w, h), Source: fixedSource{dirs: mat.NewDense(2, 2, nil)}}
			},
			want: InvariantFrameCount,
		},
		{
			name: "frame sizes differ",
			in: func() AssembleInput {
				frames := memFrames(3, w, h)
				frames[2] = Frame{Width: w + 1, Height: h, Pix: make([]float32, (w+1)*h*3)}
				return AssembleInput{Frames: frames, Mask: memMask(w, h), Source: GeometricLightSource{}}
			},
			want: InvariantDimensions,
		},
		{
			name: "mask size differs",
			in: func() AssembleInput {
				return AssembleInput{Frames: memFrames(3, w, h), Mask: memMask(w, h+1), Source: GeometricLightSource{}}
			},
			want: InvariantDimensions,
		},
		{
			name: "normal map size differs",
			in: func() AssembleInput {
				n := ZeroNormalMap(w+2, h)
				return AssembleInput{Frames: memFrames(3, w, h), Mask: memMask(w, h), Source: GeometricLightSource{}, GTNormal: &n}
			},
			want: InvariantDimensions,
		},
		{
			name: "frames out of order",
			in: func() AssembleInput {
				frames := memFrames(3, w, h)
				frames[0].Path = "/x/frame_0002.png"
				frames[1].Path = "/x/frame_0001.png"
				frames[2].Path = "/x/frame_0003.png"
				return AssembleInput{Frames: frames, Mask: memMask(w, h), Source: GeometricLightSource{}}
			},
			want: InvariantFrameOrder,
		},
		{
			name: "duplicate order key",
			in: func() AssembleInput {
				frames := memFrames(2, w, h)
				frames[0].Path = "/a/frame_0001.png"
				frames[1].Path = "/b/frame_0001.png"
				return AssembleInput{Frames: frames, Mask: memMask(w, h), Source: GeometricLightSource{}}
			},
			want: InvariantFrameOrder,
		},
		{
			name: "direction is not unit length",
			in: func() AssembleInput {
				d := unitDirs(t, 2)
				d.Set(1, 0, d.At(1, 0)+0.1)
				return AssembleInput{Frames: memFrames(2, w, h), Mask: memMask(w, h), Source: fixedSource{dirs: d}}
			},
			want: InvariantUnitDirections,
		},
		{
			name: "direction has NaN",
			in: func() AssembleInput {
				d := unitDirs(t, 2)
				d.Set(0, 2, math.NaN())
				return AssembleInput{Frames: memFrames(2, w, h), Mask: memMask(w, h), Source: fixedSource{dirs: d}}
			},
			want: InvariantFiniteValues,
		},
		{
			name: "intensity not positive",
			in: func() AssembleInput {
				ints := ones(2, 3)
				ints.Set(1, 1, 0)
				return AssembleInput{Frames: memFrames(2, w, h), Mask: memMask(w, h),
					Source: fixedSource{dirs: unitDirs(t, 2), ints: ints}}
			},
			want: InvariantIntensityPositive,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Assemble(tc.in(), AssembleOptions{})
			assert.Nil(t, rec)
			requireInvariant(t, err, tc.want)
		})
	}
}

func TestAssembleUnitTolerance(t *testing.T) {
	d := unitDirs(t, 2)
	d.Set(0, 0, d.At(0, 0)*1.001)
	in := AssembleInput{Frames: memFrames(2, 2, 2), Mask: memMask(2, 2), Source: fixedSource{dirs: d}}

	_, err := Assemble(in, AssembleOptions{})
	requireInvariant(t, err, InvariantUnitDirections)

	_, err = Assemble(in, AssembleOptions{UnitTolerance: 1e-2})
	assert.NoError(t, err)
}

func TestAssembleSourceErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	rec, err := Assemble(AssembleInput{
		Frames: memFrames(2, 2, 2),
		Mask:   memMask(2, 2),
		Source: fixedSource{err: boom},
	}, AssembleOptions{})
	assert.Nil(t, rec)
	assert.Same(t, boom, err)
}

func TestAssembleNoFrames(t *testing.T) {
	_, err := Assemble(AssembleInput{Source: GeometricLightSource{}}, AssembleOptions{})
	requireInvariant(t, err, InvariantFrameCount)
}

func TestRecordIsImmutable(t *testing.T) {
	frames := memFrames(2, 2, 2)
	mask := memMask(2, 2)
	rec, err := Assemble(AssembleInput{Frames: frames, Mask: mask, Source: GeometricLightSource{}}, AssembleOptions{})
	require.NoError(t, err)

	// caller buffers are not aliased
	frames[0].Pix[0] = 42
	mask.Pix[0] = 42
	f0, err := rec.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, float32(0), f0.Pix[0])
	assert.Equal(t, float32(0), rec.Mask().Pix[0])

	// accessor results are copies
	f0.Pix[0] = 99
	rec.Images()[1].Pix[0] = 99
	rec.Mask().Pix[0] = 99
	rec.GTNormal().Pix[0] = 99
	rec.LightDirection().Set(0, 0, 99)
	rec.LightIntensity().Set(0, 0, 99)

	again, _ := rec.Frame(0)
	assert.Equal(t, float32(0), again.Pix[0])
	assert.Equal(t, float32(1), rec.Images()[1].Pix[0])
	assert.Equal(t, float32(0), rec.Mask().Pix[0])
	assert.Equal(t, float32(0), rec.GTNormal().Pix[0])
	assert.NotEqual(t, 99.0, rec.LightDirection().At(0, 0))
	assert.Equal(t, 1.0, rec.LightIntensity().At(0, 0))
}

func TestRecordExampleAndBatch(t *testing.T) {
	rec, err := Assemble(AssembleInput{Frames: memFrames(3, 2, 1), Mask: memMask(2, 1), Source: GeometricLightSource{}}, AssembleOptions{})
	require.NoError(t, err)

	in, lab, err := rec.Example(2)
	require.NoError(t, err)
	assert.Len(t, in, 6)
	assert.Equal(t, float32(2), in[0])
	require.Len(t, lab, 6)
	d := rec.LightDirection()
	assert.Equal(t, []float32{float32(d.At(2, 0)), float32(d.At(2, 1)), float32(d.At(2, 2)), 1, 1, 1}, lab)

	_, _, err = rec.Example(3)
	assert.Error(t, err)

	ins, labs, err := rec.Batch([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, float32(2), ins[0][0])
	assert.Equal(t, float32(0), ins[1][0])
	assert.Len(t, labs, 2)
}
