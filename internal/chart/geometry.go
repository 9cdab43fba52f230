package chart

import (
	"math"

	"github.com/bobmcallan/pagoda/internal/pyramid"
)

const (
	DefaultSize       = 600
	DefaultInnerRatio = 0.5
	DefaultOuterRatio = 0.9
	MaxSize           = 2048
)

// Geometry describes the drawing surface and the ring radii as fractions
// of half the shorter side.
type Geometry struct {
	Width      int     `toml:"width" json:"width"`
	Height     int     `toml:"height" json:"height"`
	InnerRatio float64 `toml:"inner_ratio" json:"inner_ratio"`
	OuterRatio float64 `toml:"outer_ratio" json:"outer_ratio"`
}

// DefaultGeometry returns a 600x600 surface with the default ring.
func DefaultGeometry() Geometry {
	return Square(DefaultSize)
}

// Square returns a size x size surface with the default ring.
func Square(size int) Geometry {
	return Geometry{Width: size, Height: size, InnerRatio: DefaultInnerRatio, OuterRatio: DefaultOuterRatio}
}

// WithSize returns a square copy of g keeping its ratios.
func (g Geometry) WithSize(size int) Geometry {
	g.Width, g.Height = size, size
	return g.normalized()
}

func (g Geometry) normalized() Geometry {
	if g.Width <= 0 {
		g.Width = DefaultSize
	}
	if g.Height <= 0 {
		g.Height = DefaultSize
	}
	if g.Width > MaxSize {
		g.Width = MaxSize
	}
	if g.Height > MaxSize {
		g.Height = MaxSize
	}
	if g.OuterRatio <= 0 || g.OuterRatio > 1 {
		g.OuterRatio = DefaultOuterRatio
	}
	if g.InnerRatio < 0 || g.InnerRatio >= g.OuterRatio {
		g.InnerRatio = DefaultInnerRatio * g.OuterRatio / DefaultOuterRatio
	}
	return g
}

// Center returns the ring centre in pixels.
func (g Geometry) Center() (x, y float64) {
	g = g.normalized()
	return float64(g.Width) / 2, float64(g.Height) / 2
}

func (g Geometry) halfSide() float64 {
	g = g.normalized()
	return math.Min(float64(g.Width), float64(g.Height)) / 2
}

// OuterRadius is the outer edge of the ring in pixels.
func (g Geometry) OuterRadius() float64 {
	return g.halfSide() * g.normalized().OuterRatio
}

// InnerRadius is the edge of the donut hole in pixels.
func (g Geometry) InnerRadius() float64 {
	return g.halfSide() * g.normalized().InnerRatio
}

// Hit maps a pixel on the rendered surface onto a category.
func (g Geometry) Hit(slices []pyramid.Slice, x, y float64) (pyramid.Category, bool) {
	cx, cy := g.Center()
	angle, radius := pyramid.Polar(x, y, cx, cy)
	return pyramid.HitTest(slices, angle, radius, g.InnerRadius(), g.OuterRadius())
}
