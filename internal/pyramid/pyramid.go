// Package pyramid turns a nutrition pagoda (four food-category magnitudes)
// into donut-chart slices and maps clicks back onto them.
package pyramid

import (
	"math"
	"strings"
)

// Category identifies one charted tier of the food pagoda.
type Category int

const (
	CerealTuber Category = iota + 1
	VegetableFruit
	MeatEgg
	DairyBeanNut
)

// Categories lists the charted tiers in chart order.
var Categories = []Category{CerealTuber, VegetableFruit, MeatEgg, DairyBeanNut}

var categoryKeys = map[Category]string{
	CerealTuber:    "cereal_tuber",
	VegetableFruit: "vegetable_fruit",
	MeatEgg:        "meat_egg",
	DairyBeanNut:   "dairy_bean_nut",
}

var categoryLabels = map[Category]string{
	CerealTuber:    "Cereal & Tuber",
	VegetableFruit: "Vegetable & Fruit",
	MeatEgg:        "Meat & Egg",
	DairyBeanNut:   "Dairy, Bean & Nut",
}

var categoryColors = map[Category]string{
	CerealTuber:    "f4b942", // amber
	VegetableFruit: "4caf50", // green
	MeatEgg:        "e57373", // red-300
	DairyBeanNut:   "64b5f6", // blue-300
}

// Key returns the stable machine key, e.g. "meat_egg".
func (c Category) Key() string {
	return categoryKeys[c]
}

// Level returns the pagoda level name, "L1" through "L4".
func (c Category) Level() string {
	if c < CerealTuber || c > DairyBeanNut {
		return ""
	}
	return "L" + string(rune('0'+int(c)))
}

// Label returns the display label.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Color returns the display colour as a hex string without '#'.
func (c Category) Color() string {
	return categoryColors[c]
}

func (c Category) String() string {
	return c.Key()
}

// MarshalText encodes the category as its key.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

// ParseCategory accepts "L1".."L4" or a category key, case-insensitive.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if s == strings.ToLower(c.Level()) || s == c.Key() {
			return c, true
		}
	}
	return 0, false
}

// Pyramid holds the category magnitudes in grams. Oil and Salt are carried
// for display only and never charted.
type Pyramid struct {
	L1   float64 `json:"l1"`
	L2   float64 `json:"l2"`
	L3   float64 `json:"l3"`
	L4   float64 `json:"l4"`
	Oil  float64 `json:"oil"`
	Salt float64 `json:"salt"`
}

// Value returns the clamped magnitude for a category.
func (p Pyramid) Value(c Category) float64 {
	switch c {
	case CerealTuber:
		return Clamp(p.L1)
	case VegetableFruit:
		return Clamp(p.L2)
	case MeatEgg:
		return Clamp(p.L3)
	case DairyBeanNut:
		return Clamp(p.L4)
	}
	return 0
}

// Total is the sum of the clamped charted magnitudes, saturating at
// math.MaxFloat64.
func (p Pyramid) Total() float64 {
	var total float64
	for _, c := range Categories {
		total = Saturate(total + p.Value(c))
	}
	return total
}

// Saturate caps +Inf at math.MaxFloat64.
func Saturate(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

// Clamp coerces negative, NaN and infinite values to zero.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Slice is one wedge of the donut. Angles are degrees clockwise from 12 o'clock.
type Slice struct {
	Category   Category `json:"category"`
	Label      string   `json:"label"`
	Value      float64  `json:"value"`
	StartAngle float64  `json:"start_angle"`
	EndAngle   float64  `json:"end_angle"`
	Color      string   `json:"color"`
}

// Width is the angular width in degrees.
func (s Slice) Width() float64 {
	return s.EndAngle - s.StartAngle
}

// Percent is the slice's share of the circle, 0-100.
func (s Slice) Percent() float64 {
	return s.Width() / 360 * 100
}

// MidAngle is the angle halfway through the slice.
func (s Slice) MidAngle() float64 {
	return s.StartAngle + s.Width()/2
}

// Contains reports whether angle falls in [StartAngle, EndAngle).
func (s Slice) Contains(angle float64) bool {
	return angle >= s.StartAngle && angle < s.EndAngle
}

// Derive computes the chart slices in category order, skipping empty
// categories. ok is false when every magnitude is zero.
//
// Magnitudes are divided by the largest one before summing, so any finite
// input yields finite angles in [0, 360].
func Derive(p Pyramid) (slices []Slice, ok bool) {
	var values [4]float64
	var peak float64
	for i, c := range Categories {
		values[i] = p.Value(c)
		peak = math.Max(peak, values[i])
	}
	if peak <= 0 {
		return nil, false
	}

	var scaled float64
	for _, v := range values {
		scaled += v / peak
	}

	var cursor float64
	for i, c := range Categories {
		v := values[i]
		if v == 0 {
			continue
		}
		end := math.Min(cursor+360*(v/peak)/scaled, 360)
		slices = append(slices, Slice{
			Category:   c,
			Label:      c.Label(),
			Value:      v,
			StartAngle: cursor,
			EndAngle:   end,
			Color:      c.Color(),
		})
		cursor = end
	}

	// Pin the closing edge so the ring has no gap from rounding.
	slices[len(slices)-1].EndAngle = 360
	return slices, true
}

// HitTest returns the category whose wedge contains the click. angle is in
// degrees clockwise from 12 o'clock, radius is the distance from the centre.
func HitTest(slices []Slice, angle, radius, inner, outer float64) (Category, bool) {
	if radius < inner || radius > outer {
		return 0, false
	}
	angle = NormalizeAngle(angle)
	for _, s := range slices {
		if s.Contains(angle) {
			return s.Category, true
		}
	}
	return 0, false
}
