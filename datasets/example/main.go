package main

// Example command that loads a photometric stereo capture with the layout
// auto-detection in datasets.Load, then converts it into gomlx tensors both
// in one go and as fixed-size batches.
//
// Usage:
//   go run ./datasets/example [root]
//
// root defaults to ../assets/photostereo/cat. It may be either an unlabeled
// capture (frame_*.png plus masks/object_mask.png) or a labeled one with an
// Object/ directory and light_directions.txt.

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/Noofbiz/photostereo/datasets"
)

func main() {
	root := "../assets/photostereo/cat"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	opts := datasets.DefaultOptions()
	opts.Logger = klog.Background()

	rec, err := datasets.Load(root, opts)
	if err != nil {
		log.Fatalf("failed to load dataset %s: %v", root, err)
	}
	fmt.Printf("Loaded %d frames of %dx%d from %s (source: %s)\n",
		rec.Len(), rec.Width(), rec.Height(), root, rec.Source())

	t := rec.Tensors()
	fmt.Printf("Created record tensors:\n")
	fmt.Printf("  Images: %v\n", t.Images.Shape().Dimensions)
	fmt.Printf("  Mask: %v\n", t.Mask.Shape().Dimensions)
	fmt.Printf("  Light directions: %v\n", t.LightDirection.Shape().Dimensions)
	fmt.Printf("  Light intensities: %v\n", t.LightIntensity.Shape().Dimensions)
	fmt.Printf("  GT normals: %v\n", t.GTNormal.Shape().Dimensions)

	// Show the first example's labels: direction then intensity.
	_, labels, err := rec.Example(0)
	if err != nil {
		log.Fatalf("failed to read example 0: %v", err)
	}
	fmt.Printf("  First example label: %v\n", labels)

	fmt.Println()

	batcher, err := datasets.NewFrameBatcher(rec, 4)
	if err != nil {
		log.Fatalf("failed to create batcher: %v", err)
	}
	for i := 0; ; i++ {
		_, inputs, labels, err := batcher.Yield()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("failed to yield batch %d: %v", i, err)
		}
		fmt.Printf("Batch %d: input=%v label=%v\n", i,
			inputs[0].Shape().Dimensions, labels[0].Shape().Dimensions)
	}

	fmt.Println("\nExample completed successfully!")
}
