// Package photo implements the photo pipeline: every upload is derived
// into three JPEG resolutions on disk, addressed by an opaque identifier
// that encodes year, month and a server timestamp. Files live under
// {root}/{userID}/{year}/{month}/{epochSeconds}.jpeg with .full and
// .thumb siblings.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/image/draw"
)

// Derivative size limits.
const (
	SDMaxWidth     = 640 // "sd" mode cap for the full derivative
	NormalMaxWidth = 320 // always applied to the normal derivative
	ThumbMinDim    = 80  // smaller dimension of the thumbnail
)

// JPEGQuality is the compression quality for all encoded derivatives.
const JPEGQuality = 85

// ModeSD requests a storage-saving upload where even the full derivative
// is downscaled.
const ModeSD = "sd"

// ErrNotFound is returned when a photo identifier maps to no file.
var ErrNotFound = errors.New("photo not found")

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// idPattern matches photo identifiers: year-month-epoch, with an
// optional derivative suffix. Anything else (including path separators)
// is rejected before touching the filesystem.
var idPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d+)\.jpeg(\.full|\.thumb)?$`)

// Store manages photo files under a root directory.
type Store struct {
	Root string
}

// NewStore creates a photo store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Root: dir}
}

// Save derives and persists the three resolutions of an uploaded image
// and returns the photo identifier to be recorded in the item's photo
// sources. The input format is sniffed from the bytes, never trusted
// from headers, and EXIF orientation is applied before any derivation.
func (s *Store) Save(ownerID int64, mode string, data []byte) (string, error) {
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return "", fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}
	img = normalizeOrientation(img, data)

	now := time.Now()
	year, month := now.Year(), int(now.Month())
	epoch := now.Unix()

	dir := filepath.Join(s.Root,
		strconv.FormatInt(ownerID, 10),
		strconv.Itoa(year),
		fmt.Sprintf("%02d", month),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating photo directory: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("%d.jpeg", epoch))

	full := img
	if mode == ModeSD {
		full = scaleToWidth(img, SDMaxWidth)
	}
	if err := writeJPEG(base+".full", full); err != nil {
		return "", err
	}
	if err := writeJPEG(base, scaleToWidth(img, NormalMaxWidth)); err != nil {
		return "", err
	}
	if err := writeJPEG(base+".thumb", thumbnail(img)); err != nil {
		return "", err
	}

	return fmt.Sprintf("%d-%02d-%d.jpeg", year, month, epoch), nil
}

// Path maps a photo identifier to its on-disk location. The path is
// always rooted under the given owner's directory, so an identifier from
// another user's item can never escape the requesting user's scope.
func (s *Store) Path(ownerID int64, id string) (string, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return "", fmt.Errorf("photo id %q: %w", id, ErrNotFound)
	}
	name := m[3] + ".jpeg" + m[4]
	return filepath.Join(s.Root, strconv.FormatInt(ownerID, 10), m[1], m[2], name), nil
}

// Open returns the file for a photo identifier, or ErrNotFound.
func (s *Store) Open(ownerID int64, id string) (*os.File, error) {
	path, err := s.Path(ownerID, id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("photo %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening photo: %w", err)
	}
	return f, nil
}

// RemoveStale deletes the files of every source present in previous but
// absent from current. It must run before the item's photo column is
// overwritten, otherwise the set difference is lost. Missing base files
// are skipped; missing derivatives are tolerated, any other removal
// error is reported.
func (s *Store) RemoveStale(ownerID int64, previous, current []string) error {
	keep := make(map[string]bool, len(current))
	for _, src := range current {
		keep[src] = true
	}

	for _, src := range previous {
		if keep[src] {
			continue
		}
		path, err := s.Path(ownerID, src)
		if err != nil {
			// Unparseable historical entry, nothing on disk to remove.
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing photo %q: %w", src, err)
		}
		for _, suffix := range []string{".full", ".thumb"} {
			if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("removing photo derivative %q: %w", src+suffix, err)
			}
		}
	}
	return nil
}

// scaleToWidth downscales the image to at most maxWidth, preserving
// aspect ratio. Smaller images are returned unchanged.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth {
		return img
	}

	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	return resample(img, maxWidth, newH)
}

// thumbnail scales the image by max(ThumbMinDim/w, ThumbMinDim/h) so the
// smaller dimension lands exactly on ThumbMinDim.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	factor := float64(ThumbMinDim) / float64(w)
	if fh := float64(ThumbMinDim) / float64(h); fh > factor {
		factor = fh
	}

	newW := int(float64(w)*factor + 0.5)
	newH := int(float64(h)*factor + 0.5)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return resample(img, newW, newH)
}

// resample scales with high-quality Catmull-Rom interpolation.
func resample(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// writeJPEG encodes the image as baseline JPEG at the given path. Writes
// are not atomic; a crash mid-write can leave a partial file.
func writeJPEG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encoding JPEG: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
