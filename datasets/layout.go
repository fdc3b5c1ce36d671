package datasets

import (
	"path/filepath"

	"github.com/go-logr/logr"
)

// UnlabeledLayout names the files of a capture without calibration.
type UnlabeledLayout struct {
	FramePattern string // glob under the root, e.g. "frame_*"
	MaskDir      string // directory under the root holding the mask
	MaskStem     string // mask file name without extension
}

// LabeledLayout names the files of a calibrated capture.
type LabeledLayout struct {
	FrameDir        string
	FramePattern    string
	MaskStem        string
	CalibrationFile string
	// IntensityFile is read when present; a missing file means all-ones.
	// Disabled skips the lookup. Empty means DefaultIntensityFile.
	IntensityFile string
	// NormalStem names an optional ground-truth normal image. Disabled skips
	// the lookup. Empty means DefaultNormalStem.
	NormalStem string
}

// Disabled, as LabeledLayout.IntensityFile or NormalStem, turns off that
// optional lookup.
const Disabled = "-"

// Options configures Load, LoadUnlabeled and LoadLabeled. Zero fields take
// the defaults from DefaultOptions.
type Options struct {
	Workers       int
	UnitTolerance float64
	Logger        logr.Logger
	Unlabeled     UnlabeledLayout
	Labeled       LabeledLayout
}

// DefaultOptions returns the layout names used by the reference captures.
func DefaultOptions() Options {
	return Options{
		UnitTolerance: DefaultUnitTolerance,
		Unlabeled: UnlabeledLayout{
			FramePattern: DefaultFramePattern,
			MaskDir:      DefaultMaskDir,
			MaskStem:     DefaultMaskStem,
		},
		Labeled: LabeledLayout{
			FrameDir:        DefaultObjectDir,
			FramePattern:    DefaultObjectPattern,
			MaskStem:        DefaultLabeledMaskStem,
			CalibrationFile: DefaultCalibrationFile,
			IntensityFile:   DefaultIntensityFile,
			NormalStem:      DefaultNormalStem,
		},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UnitTolerance <= 0 {
		o.UnitTolerance = d.UnitTolerance
	}
	def := func(v *string, fallback string) {
		if *v == "" {
			*v = fallback
		}
	}
	def(&o.Unlabeled.FramePattern, d.Unlabeled.FramePattern)
	def(&o.Unlabeled.MaskDir, d.Unlabeled.MaskDir)
	def(&o.Unlabeled.MaskStem, d.Unlabeled.MaskStem)
	def(&o.Labeled.FrameDir, d.Labeled.FrameDir)
	def(&o.Labeled.FramePattern, d.Labeled.FramePattern)
	def(&o.Labeled.MaskStem, d.Labeled.MaskStem)
	def(&o.Labeled.CalibrationFile, d.Labeled.CalibrationFile)
	def(&o.Labeled.IntensityFile, d.Labeled.IntensityFile)
	def(&o.Labeled.NormalStem, d.Labeled.NormalStem)
	return o
}

// Load reads root as a labeled capture when it contains the calibration file
// and as an unlabeled capture otherwise.
func Load(root string, opts Options) (*Record, error) {
	opts = opts.withDefaults()
	if err := requireDir("dataset root", root); err != nil {
		return nil, err
	}
	if fileExists(filepath.Join(root, opts.Labeled.CalibrationFile)) {
		opts.Logger.V(1).Info("Detected labeled layout", "root", root)
		return LoadLabeled(root, opts)
	}
	opts.Logger.V(1).Info("Detected unlabeled layout", "root", root)
	return LoadUnlabeled(root, opts)
}

// LoadUnlabeled reads frame_*.<ext> frames and masks/object_mask.<ext> from
// root and initializes light directions on the hemisphere.
func LoadUnlabeled(root string, opts Options) (*Record, error) {
	opts = opts.withDefaults()
	if err := requireDir("dataset root", root); err != nil {
		return nil, err
	}
	lay := opts.Unlabeled

	frames, err := LoadFrames(root, lay.FramePattern, FrameOptions{Workers: opts.Workers, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	mask, err := findMask(filepath.Join(root, lay.MaskDir), lay.MaskStem, opts.Logger)
	if err != nil {
		return nil, err
	}

	return Assemble(AssembleInput{
		Frames: frames,
		Mask:   mask,
		Source: GeometricLightSource{Logger: opts.Logger},
	}, AssembleOptions{UnitTolerance: opts.UnitTolerance, Logger: opts.Logger})
}

// LoadLabeled reads Object/ frames, the root mask and light_directions.txt,
// plus light_intensities.txt and a ground-truth normal map when present.
func LoadLabeled(root string, opts Options) (*Record, error) {
	opts = opts.withDefaults()
	if err := requireDir("dataset root", root); err != nil {
		return nil, err
	}
	lay := opts.Labeled

	frames, err := LoadFrames(filepath.Join(root, lay.FrameDir), lay.FramePattern,
		FrameOptions{Workers: opts.Workers, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	mask, err := findMask(root, lay.MaskStem, opts.Logger)
	if err != nil {
		return nil, err
	}

	src := ParsedLightSource{
		Path:   filepath.Join(root, lay.CalibrationFile),
		Logger: opts.Logger,
	}
	if lay.IntensityFile != Disabled {
		if p := filepath.Join(root, lay.IntensityFile); fileExists(p) {
			src.IntensityPath = p
		}
	}

	var normal *NormalMap
	if lay.NormalStem != Disabled {
		if p, err := FindImage(root, lay.NormalStem); err == nil {
			n, err := LoadNormalMap(p)
			if err != nil {
				return nil, err
			}
			opts.Logger.Info("Loaded ground-truth normals", "path", p)
			normal = &n
		} else if !IsNotFound(err) {
			return nil, err
		}
	}

	return Assemble(AssembleInput{
		Frames:   frames,
		Mask:     mask,
		Source:   src,
		GTNormal: normal,
	}, AssembleOptions{UnitTolerance: opts.UnitTolerance, Logger: opts.Logger})
}

func findMask(dir, stem string, log logr.Logger) (Mask, error) {
	p, err := FindImage(dir, stem)
	if err != nil {
		if IsNotFound(err) {
			return Mask{}, &NotFoundError{What: "mask", Path: filepath.Join(dir, stem+".*")}
		}
		return Mask{}, err
	}
	m, err := LoadMask(p)
	if err != nil {
		return Mask{}, err
	}
	log.Info("Loaded mask", "path", p)
	return m, nil
}
