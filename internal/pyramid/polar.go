package pyramid

import "math"

// NormalizeAngle folds degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// ScreenRadians converts a chart angle (0 = up, clockwise) into renderer
// radians (0 = 3 o'clock, y axis pointing down).
func ScreenRadians(deg float64) float64 {
	return (deg - 90) * math.Pi / 180
}

// PointAt returns the screen point at the given chart angle and radius
// around (cx, cy).
func PointAt(cx, cy, radius, deg float64) (x, y float64) {
	rad := ScreenRadians(deg)
	return cx + radius*math.Cos(rad), cy + radius*math.Sin(rad)
}

// Polar converts a screen point into a chart angle and a distance from
// (cx, cy). It is the inverse of PointAt.
func Polar(x, y, cx, cy float64) (angle, radius float64) {
	dx, dy := x-cx, y-cy
	radius = math.Hypot(dx, dy)
	if radius == 0 {
		return 0, 0
	}
	angle = math.Atan2(dy, dx)*180/math.Pi + 90
	return NormalizeAngle(angle), radius
}
