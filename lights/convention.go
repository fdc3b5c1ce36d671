package lights

import "gonum.org/v1/gonum/mat"

// FlipYZ converts an N×3 direction matrix between the capture convention and
// the optimizer convention by negating the y and z components. x is kept.
// The input is never modified and FlipYZ(FlipYZ(m)) equals m exactly.
func FlipYZ(m mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, _ := out.Dims()
	for i := range r {
		out.Set(i, 1, -out.At(i, 1))
		out.Set(i, 2, -out.At(i, 2))
	}
	return out
}
