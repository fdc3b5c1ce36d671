// Package datasets loads photometric stereo captures into a single validated
// Record: the ordered frames, the object mask, one light direction and one
// light intensity per frame, and a ground-truth normal map (zeros when none
// exists).
//
// Two on-disk layouts are supported:
//
// Unlabeled (LoadUnlabeled)
//   - frame_NNNN.<ext> files directly under the root
//   - masks/object_mask.<ext>
//   - no calibration: directions come from lights.Hemisphere
//
// Labeled (LoadLabeled)
//   - frames under Object/
//   - mask.<ext> at the root
//   - light_directions.txt (3 or 4 axis rows, or one row per frame)
//   - optional light_intensities.txt and Normal_gt.<ext>
//
// Load picks the layout from the presence of the calibration file. Both
// layouts end in Assemble, which is the only place invariants are checked.
//
// Frame order is the lexicographic order of the frame base names (see
// FrameOrderKey). Calibration rows are matched to frames by position in that
// order, so renaming frames silently re-pairs them with other lights.
package datasets

// Dataset exposes a record as per-frame training examples. Inputs are the
// frame's interleaved RGB pixels; labels are the frame's light direction
// followed by its light intensity (6 values).
type Dataset interface {
	Len() int
	Example(i int) (inputs []float32, labels []float32, err error)
	Batch(indices []int) (inputs [][]float32, labels [][]float32, err error)
}

// Default layout names.
const (
	DefaultFramePattern    = "frame_*"
	DefaultMaskDir         = "masks"
	DefaultMaskStem        = "object_mask"
	DefaultObjectDir       = "Object"
	DefaultObjectPattern   = "*"
	DefaultLabeledMaskStem = "mask"
	DefaultCalibrationFile = "light_directions.txt"
	DefaultIntensityFile   = "light_intensities.txt"
	DefaultNormalStem      = "Normal_gt"
)

// DefaultUnitTolerance is the allowed deviation of a light direction's norm
// from 1.
const DefaultUnitTolerance = 1e-4
