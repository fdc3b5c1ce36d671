package datasets

import (
	"errors"
	"io/fs"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/photostereo/lights"
)

// Light source names reported by Record.Source.
const (
	SourceGeometric = "geometric"
	SourceParsed    = "parsed"
)

// LightSource supplies per-frame lighting for a set of frames. Directions are
// returned in the capture convention; Assemble converts them with
// lights.FlipYZ. Intensities may be nil, meaning the source has none.
//
// Sources do not check their row count against the frames; Assemble does.
type LightSource interface {
	Name() string
	Directions(frames []Frame) (*mat.Dense, error)
	Intensities(frames []Frame) (*mat.Dense, error)
}

// GeometricLightSource synthesizes hemisphere directions for captures
// without calibration.
type GeometricLightSource struct {
	Logger logr.Logger
}

func (GeometricLightSource) Name() string { return SourceGeometric }

func (s GeometricLightSource) Directions(frames []Frame) (*mat.Dense, error) {
	d, err := lights.Hemisphere(len(frames))
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Initialized light directions in hemisphere pattern", "count", len(frames))
	return d, nil
}

func (GeometricLightSource) Intensities([]Frame) (*mat.Dense, error) { return nil, nil }

// ParsedLightSource reads directions (and optionally intensities) from
// calibration text files.
type ParsedLightSource struct {
	Path string
	// IntensityPath is optional; empty means intensities are not supplied.
	IntensityPath string
	Logger        logr.Logger
}

func (ParsedLightSource) Name() string { return SourceParsed }

func (s ParsedLightSource) Directions(frames []Frame) (*mat.Dense, error) {
	return s.read("calibration file", s.Path, len(frames), lights.DetectLayout)
}

func (s ParsedLightSource) Intensities(frames []Frame) (*mat.Dense, error) {
	if s.IntensityPath == "" {
		s.Logger.Info("Using default light intensities")
		return nil, nil
	}
	return s.read("intensity file", s.IntensityPath, len(frames), intensityLayout)
}

// intensityLayout reads an N×3 intensity file as one row per frame, even when
// N is 3 or 4.
func intensityLayout(raw mat.Matrix, frameCount int) lights.Layout {
	if r, c := raw.Dims(); r == frameCount && c == 3 {
		return lights.FramesMajor
	}
	return lights.DetectLayout(raw, frameCount)
}

func (s ParsedLightSource) read(what, path string, frameCount int,
	detect func(mat.Matrix, int) lights.Layout) (*mat.Dense, error) {
	raw, err := lights.ReadCalibration(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{What: what, Path: path, Err: err}
		}
		return nil, err
	}

	layout := detect(raw, frameCount)
	out, err := lights.OrientAs(raw, layout)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}

	rr, rc := raw.Dims()
	n, _ := out.Dims()
	s.Logger.Info("Parsed light "+what, "path", path, "layout", layout.String(),
		"raw", []int{rr, rc}, "rows", n)
	return out, nil
}
