// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package surface

import (
	"fmt"
	"image"
	"sync"

	// Register decoders for reference frames.
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"

	"github.com/tomtom215/safeflow/internal/annotation"
)

// ImageReference is a reference frame with a native size and the size it is
// currently displayed at. A zero displayed size means native.
type ImageReference struct {
	mu        sync.RWMutex
	img       image.Image
	native    image.Point
	displayed image.Point
}

var _ annotation.Reference = (*ImageReference)(nil)

// NewImageReference wraps an already decoded frame.
func NewImageReference(img image.Image) *ImageReference {
	ref := &ImageReference{img: img}
	if img != nil {
		ref.native = img.Bounds().Size()
	}
	return ref
}

// NewBlankReference describes a frame of the given size without pixels,
// for example a video stream whose resolution is known.
func NewBlankReference(width, height int) *ImageReference {
	return &ImageReference{native: image.Pt(width, height)}
}

// LoadImageReference decodes a PNG or JPEG frame from disk.
func LoadImageReference(path string) (*ImageReference, error) {
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load reference frame %s: %w", path, err)
	}
	return NewImageReference(img), nil
}

// Image returns the decoded frame, or nil for a blank reference.
func (r *ImageReference) Image() image.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.img
}

// NativeSize returns the frame's own pixel dimensions.
func (r *ImageReference) NativeSize() (float64, float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return float64(r.native.X), float64(r.native.Y)
}

// SetDisplaySize records the size the frame is shown at.
func (r *ImageReference) SetDisplaySize(width, height int) {
	r.mu.Lock()
	r.displayed = image.Pt(width, height)
	r.mu.Unlock()
}

// DisplaySize implements annotation.Reference.
func (r *ImageReference) DisplaySize() (float64, float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.displayed.X > 0 && r.displayed.Y > 0 {
		return float64(r.displayed.X), float64(r.displayed.Y)
	}
	return float64(r.native.X), float64(r.native.Y)
}

// Scale returns the factor that converts displayed coordinates to native
// frame coordinates.
func (r *ImageReference) Scale() annotation.Scale {
	nw, nh := r.NativeSize()
	dw, dh := r.DisplaySize()
	return annotation.ScaleFor(nw, nh, dw, dh)
}
