package lights

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// maxLineBytes bounds a single calibration row; axes-major files put every
// frame on one line.
const maxLineBytes = 4 << 20

// Layout describes how a calibration matrix maps onto frames.
type Layout int

const (
	// AxesMajor matrices have one row per axis (3 or 4 rows) and one column
	// per frame. A fourth row, when present, is ignored.
	AxesMajor Layout = iota
	// FramesMajor matrices have one row per frame and exactly 3 columns.
	FramesMajor
)

func (l Layout) String() string {
	switch l {
	case AxesMajor:
		return "axes-major"
	case FramesMajor:
		return "frames-major"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ReadCalibration opens path and parses it with ParseCalibration. Format
// errors carry the path. A missing file is reported with an error satisfying
// os.IsNotExist / errors.Is(err, fs.ErrNotExist).
func ReadCalibration(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ParseCalibration(f)
	if fe, ok := err.(*FormatError); ok {
		fe.Path = path
	}
	return m, err
}

// ParseCalibration reads whitespace separated floats, one matrix row per
// non-blank line, and returns the raw R×C matrix. Every row must have the same
// number of columns.
func ParseCalibration(r io.Reader) (*mat.Dense, error) {
	var (
		data []float64
		cols int
		rows int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, &FormatError{
				Line: lineNo,
				Msg:  fmt.Sprintf("row has %d values, expected %d", len(fields), cols),
			}
		}
		for _, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &FormatError{Line: lineNo, Token: tok, Msg: "not a number"}
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calibration: %w", err)
	}
	if rows == 0 {
		return nil, &FormatError{Msg: "no values"}
	}
	return mat.NewDense(rows, cols, data), nil
}

// DetectLayout picks the layout of a raw calibration matrix. Matrices with 3
// or 4 rows are axes-major; everything else is frames-major.
//
// expectedFrames (0 = unknown) only breaks ties: if the axes-major reading
// would yield a different number of frames while a frames-major reading yields
// exactly expectedFrames, the frames-major reading wins. A 3×3 matrix stays
// axes-major since both readings produce three frames.
func DetectLayout(raw mat.Matrix, expectedFrames int) Layout {
	r, c := raw.Dims()
	if r != 3 && r != 4 {
		return FramesMajor
	}
	if expectedFrames > 0 && c != expectedFrames && c == 3 && r == expectedFrames {
		return FramesMajor
	}
	return AxesMajor
}

// Orient reshapes a raw calibration matrix into one row per frame (N×3).
// The returned matrix never shares storage with raw.
func Orient(raw mat.Matrix, expectedFrames int) (*mat.Dense, Layout, error) {
	layout := DetectLayout(raw, expectedFrames)
	out, err := OrientAs(raw, layout)
	return out, layout, err
}

// OrientAs is Orient with the layout given instead of detected. An
// axes-major matrix must have 3 or 4 rows and a frames-major matrix exactly
// 3 columns.
func OrientAs(raw mat.Matrix, layout Layout) (*mat.Dense, error) {
	r, c := raw.Dims()
	switch layout {
	case AxesMajor:
		if r != 3 && r != 4 {
			return nil, &FormatError{
				Msg: fmt.Sprintf("%d×%d matrix: axes-major needs 3 or 4 rows", r, c),
			}
		}
		out := mat.NewDense(c, 3, nil)
		out.Copy(raw.T())
		return out, nil
	case FramesMajor:
		if c != 3 {
			return nil, &FormatError{
				Msg: fmt.Sprintf("%d×%d matrix: expected 3 or 4 axis rows, or 3 columns per frame", r, c),
			}
		}
		return mat.DenseCopyOf(raw), nil
	default:
		return nil, fmt.Errorf("unknown calibration layout %v", layout)
	}
}
