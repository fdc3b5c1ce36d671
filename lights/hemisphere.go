package lights

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Hemisphere returns n unit light directions spread over the upper hemisphere
// (z >= 0) along a golden-ratio spiral. Row i is always the same vector for a
// given n, so the result is a pure function of n.
//
// The directions are only an initialization for a downstream optimizer; they
// are not a physical measurement.
func Hemisphere(n int) (*mat.Dense, error) {
	if n < 1 {
		return nil, fmt.Errorf("hemisphere needs at least one direction, got %d", n)
	}
	data := make([]float64, 0, n*3)
	for i := range n {
		v := SpiralDirection(i, n)
		data = append(data, v.X, v.Y, v.Z)
	}
	return mat.NewDense(n, 3, data), nil
}

// SpiralDirection returns the i-th of n spiral directions.
func SpiralDirection(i, n int) r3.Vector {
	azimuth := 2 * math.Pi * float64(i) / math.Phi
	polar := math.Acos(1 - 2*(float64(i)+0.5)/float64(n))
	// lower half of the sphere collapses onto the horizon
	polar = math.Min(polar, math.Pi/2)

	v := r3.Vector{
		X: math.Sin(polar) * math.Cos(azimuth),
		Y: math.Sin(polar) * math.Sin(azimuth),
		Z: math.Cos(polar),
	}
	return v.Normalize()
}
