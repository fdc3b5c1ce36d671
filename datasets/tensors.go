package datasets

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"gonum.org/v1/gonum/mat"
)

// RecordTensors holds a record as float32 gomlx tensors.
type RecordTensors struct {
	Images         *tensors.Tensor // [N, H, W, 3]
	Mask           *tensors.Tensor // [H, W]
	LightDirection *tensors.Tensor // [N, 3]
	LightIntensity *tensors.Tensor // [N, 3]
	GTNormal       *tensors.Tensor // [H, W, 3]
}

// Tensors converts the record into gomlx tensors. The tensors own their data.
func (r *Record) Tensors() *RecordTensors {
	n, h, w := r.Len(), r.Height(), r.Width()

	images := make([]float32, 0, n*h*w*3)
	for _, f := range r.frames {
		images = append(images, f.Pix...)
	}
	return &RecordTensors{
		Images:         tensors.FromFlatDataAndDimensions(images, n, h, w, 3),
		Mask:           tensors.FromFlatDataAndDimensions(append([]float32(nil), r.mask.Pix...), h, w),
		LightDirection: tensors.FromFlatDataAndDimensions(flatten32(r.dirs), n, 3),
		LightIntensity: tensors.FromFlatDataAndDimensions(flatten32(r.ints), n, 3),
		GTNormal:       tensors.FromFlatDataAndDimensions(append([]float32(nil), r.normal.Pix...), h, w, 3),
	}
}

func flatten32(m *mat.Dense) []float32 {
	rows, cols := m.Dims()
	out := make([]float32, 0, rows*cols)
	for i := range rows {
		for _, v := range m.RawRowView(i) {
			out = append(out, float32(v))
		}
	}
	return out
}

// FrameBatchFlat stores a batch of examples in flat contiguous buffers.
type FrameBatchFlat struct {
	Inputs    []float32
	Labels    []float32
	BatchSize int
	Height    int
	Width     int
	LabelDim  int
}

// InputDim is the number of values per example input.
func (b *FrameBatchFlat) InputDim() int { return b.Height * b.Width * 3 }

// MakeFrameBatchFlat flattens a batch of frame examples of the given
// resolution into contiguous buffers.
func MakeFrameBatchFlat(inputs, labels [][]float32, width, height int) (*FrameBatchFlat, error) {
	if len(inputs) != len(labels) {
		return nil, fmt.Errorf("inputs and labels batch sizes don't match: %d != %d", len(inputs), len(labels))
	}
	if len(inputs) == 0 {
		return &FrameBatchFlat{Height: height, Width: width}, nil
	}

	batchSize := len(inputs)
	inputDim := width * height * 3
	labelDim := len(labels[0])

	flatInputs := make([]float32, batchSize*inputDim)
	flatLabels := make([]float32, batchSize*labelDim)
	for i := range batchSize {
		if len(inputs[i]) != inputDim {
			return nil, fmt.Errorf("inconsistent input dimensions at example %d: expected %d, got %d",
				i, inputDim, len(inputs[i]))
		}
		if len(labels[i]) != labelDim {
			return nil, fmt.Errorf("inconsistent label dimensions at example %d: expected %d, got %d",
				i, labelDim, len(labels[i]))
		}
		copy(flatInputs[i*inputDim:], inputs[i])
		copy(flatLabels[i*labelDim:], labels[i])
	}

	return &FrameBatchFlat{
		Inputs:    flatInputs,
		Labels:    flatLabels,
		BatchSize: batchSize,
		Height:    height,
		Width:     width,
		LabelDim:  labelDim,
	}, nil
}

// ToGomlxTensors converts the batch to tensors shaped [B, H, W, 3] and
// [B, LabelDim].
func (b *FrameBatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if b.BatchSize == 0 {
		return nil, nil, fmt.Errorf("empty batch")
	}
	inT := tensors.FromFlatDataAndDimensions(b.Inputs, b.BatchSize, b.Height, b.Width, 3)
	labT := tensors.FromFlatDataAndDimensions(b.Labels, b.BatchSize, b.LabelDim)
	return inT, labT, nil
}

// FrameBatcher walks a record in frame order and yields fixed-size batches
// of tensors, in the shape gomlx training loops consume. The record itself
// is never changed; the batcher only keeps a cursor.
type FrameBatcher struct {
	// BatchSize for yielding batches. The last batch of an epoch may be
	// shorter.
	BatchSize int

	rec *Record
	pos int
}

// NewFrameBatcher creates a batcher over rec.
func NewFrameBatcher(rec *Record, batchSize int) (*FrameBatcher, error) {
	if rec == nil {
		return nil, fmt.Errorf("record is nil")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &FrameBatcher{BatchSize: batchSize, rec: rec}, nil
}

// Name returns the name of the dataset.
func (b *FrameBatcher) Name() string {
	return "FrameBatcher"
}

// Yield returns the next batch, or io.EOF once every frame has been yielded
// in the current epoch.
func (b *FrameBatcher) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if b.pos >= b.rec.Len() {
		return nil, nil, nil, io.EOF
	}
	end := min(b.pos+b.BatchSize, b.rec.Len())
	indices := make([]int, 0, end-b.pos)
	for i := b.pos; i < end; i++ {
		indices = append(indices, i)
	}

	in, la, err := b.rec.Batch(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := MakeFrameBatchFlat(in, la, b.rec.Width(), b.rec.Height())
	if err != nil {
		return nil, nil, nil, err
	}
	inT, laT, err := flat.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}

	b.pos = end
	return nil, []*tensors.Tensor{inT}, []*tensors.Tensor{laT}, nil
}

// Restart resets the batcher for a new epoch.
func (b *FrameBatcher) Restart() error {
	b.pos = 0
	return nil
}
