package datasets

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// imageExtensions lists the extensions with a registered decoder, in the
// order FindImage prefers them.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".webp"}

func hasImageExt(path string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path)))
}

// globImages returns the regular image files in dir whose base name matches
// pattern, in FrameOrderKey order. Only pattern is interpreted as a glob, so
// dir may contain metacharacters. A pattern with a directory part is resolved
// relative to dir. A missing directory yields no matches.
func globImages(dir, pattern string) ([]string, error) {
	if sub := filepath.Dir(pattern); sub != "." {
		dir, pattern = filepath.Join(dir, sub), filepath.Base(pattern)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	return listImages(dir, func(name string) bool {
		ok, _ := filepath.Match(pattern, name)
		return ok
	})
}

func listImages(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if !hasImageExt(name) || !keep(name) {
			continue
		}
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err != nil || !st.Mode().IsRegular() {
			continue
		}
		paths = append(paths, p)
	}
	slices.SortFunc(paths, func(a, b string) int {
		return strings.Compare(FrameOrderKey(a), FrameOrderKey(b))
	})
	return paths, nil
}

// FindImage finds <stem>.<ext> in dir for any supported extension (case
// insensitive), preferring the order of imageExtensions. The name minus its
// extension must equal stem, so mask.old.png is not a match for mask.
func FindImage(dir, stem string) (string, error) {
	found, err := listImages(dir, func(name string) bool {
		return strings.TrimSuffix(name, filepath.Ext(name)) == stem
	})
	if err != nil {
		return "", err
	}
	for _, ext := range imageExtensions {
		for _, p := range found {
			if strings.ToLower(filepath.Ext(p)) == ext {
				return p, nil
			}
		}
	}
	return "", &NotFoundError{What: "image", Path: filepath.Join(dir, stem+".{png,jpg,jpeg,tif,tiff,webp}")}
}

// decodeFile opens, decodes and closes one image file.
func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

func requireDir(what, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return &NotFoundError{What: what, Path: path, Err: err}
	}
	if !st.IsDir() {
		return &NotFoundError{What: what, Path: path, Err: fs.ErrInvalid}
	}
	return nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
