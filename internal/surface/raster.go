// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package surface provides an off-screen raster implementation of
// annotation.Surface backed by github.com/fogleman/gg. It is used by the
// headless annotation host to preview lines as PNG images, and by tests
// that need real pixels rather than recorded calls.
package surface

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"github.com/tomtom215/safeflow/internal/annotation"
)

// Colors used when drawing the overlay.
var (
	MarkerColor = color.RGBA{R: 0x00, G: 0x66, B: 0xff, A: 0xff}
	LineColor   = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
)

// Raster is a transparent overlay positioned at (Left, Top) in client
// coordinates. The zero value is not usable; call New.
type Raster struct {
	mu   sync.Mutex
	left float64
	top  float64
	dc   *gg.Context
}

// New returns a raster of the given size placed at (left, top).
func New(left, top float64, width, height int) *Raster {
	return &Raster{
		left: left,
		top:  top,
		dc:   gg.NewContext(clampDim(width), clampDim(height)),
	}
}

var _ annotation.Surface = (*Raster)(nil)

// Bounds implements annotation.Surface.
func (r *Raster) Bounds() annotation.Bounds {
	r.mu.Lock()
	defer r.mu.Unlock()
	return annotation.Bounds{
		Left:   r.left,
		Top:    r.top,
		Width:  float64(r.dc.Width()),
		Height: float64(r.dc.Height()),
	}
}

// Move changes the client position of the overlay.
func (r *Raster) Move(left, top float64) {
	r.mu.Lock()
	r.left, r.top = left, top
	r.mu.Unlock()
}

// Resize replaces the backing image. Content is discarded, matching what a
// browser canvas does when its dimensions are assigned.
func (r *Raster) Resize(width, height float64) {
	w, h := clampDim(int(math.Round(width))), clampDim(int(math.Round(height)))
	r.mu.Lock()
	defer r.mu.Unlock()
	if w == r.dc.Width() && h == r.dc.Height() {
		r.clearLocked()
		return
	}
	r.dc = gg.NewContext(w, h)
}

// Clear implements annotation.Surface.
func (r *Raster) Clear() {
	r.mu.Lock()
	r.clearLocked()
	r.mu.Unlock()
}

func (r *Raster) clearLocked() {
	r.dc.SetColor(color.Transparent)
	r.dc.Clear()
}

// DrawMarker implements annotation.Surface.
func (r *Raster) DrawMarker(p annotation.Point, radius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dc.DrawCircle(p.X, p.Y, radius)
	r.dc.SetColor(MarkerColor)
	r.dc.Fill()
}

// DrawLine implements annotation.Surface.
func (r *Raster) DrawLine(a, b annotation.Point, width float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dc.SetLineWidth(width)
	r.dc.SetLineCap(gg.LineCapRound)
	r.dc.SetColor(LineColor)
	r.dc.DrawLine(a.X, a.Y, b.X, b.Y)
	r.dc.Stroke()
}

// Image returns a copy of the current overlay.
func (r *Raster) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, imageRGBA(src).Pix)
	return dst
}

// EncodePNG writes the overlay as a PNG. When background is non-nil the
// overlay is composited over it, scaled to the overlay size.
func (r *Raster) EncodePNG(w io.Writer, background image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.dc
	if background != nil {
		out = gg.NewContext(r.dc.Width(), r.dc.Height())
		bb := background.Bounds()
		if bb.Dx() > 0 && bb.Dy() > 0 {
			out.Push()
			out.Scale(float64(r.dc.Width())/float64(bb.Dx()), float64(r.dc.Height())/float64(bb.Dy()))
			out.DrawImage(background, 0, 0)
			out.Pop()
		}
		out.DrawImage(r.dc.Image(), 0, 0)
	}
	if err := out.EncodePNG(w); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return nil
}

// SavePNG writes the overlay to path.
func (r *Raster) SavePNG(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save overlay %s: %w", path, err)
	}
	return nil
}

func imageRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

func clampDim(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
