package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/pagoda/internal/pyramid"
)

// Amount is a gram quantity decoded leniently from model output. Numbers,
// numeric strings with an optional unit, null and garbage are all accepted;
// anything that is not a finite non-negative number becomes 0.
type Amount float64

// UnmarshalJSON never fails; see pyramid.ParseMagnitude.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount(pyramid.ParseMagnitude(b))
	return nil
}

// Float returns the amount as a float64.
func (a Amount) Float() float64 {
	return float64(a)
}

// Level is one charted tier of the pagoda vector.
type Level struct {
	TotalValue  Amount            `json:"total_value"`
	Ingredients []string          `json:"ingredients"`
	Details     map[string]Amount `json:"details,omitempty"`
}

// CondimentLevel is the uncharted L5 tier.
type CondimentLevel struct {
	Ingredients []string `json:"ingredients"`
	Oil         Amount   `json:"oil"`
	Salt        Amount   `json:"salt"`
}

// PagodaVector is the nutrition breakdown produced for one dish.
type PagodaVector struct {
	L1 Level          `json:"L1"`
	L2 Level          `json:"L2"`
	L3 Level          `json:"L3"`
	L4 Level          `json:"L4"`
	L5 CondimentLevel `json:"L5"`
}

// Report is the analysis result for one photographed meal.
type Report struct {
	DishName        string       `json:"dish_name"`
	MainIngredients []string     `json:"main_ingredients"`
	Seasonings      []string     `json:"seasonings"`
	Vector          PagodaVector `json:"pagoda_nutrition_vector"`
	FeatureTags     []string     `json:"feature_tags"`
	Description     string       `json:"description"`
}

// ErrInvalidReport is returned when a report payload cannot be decoded.
var ErrInvalidReport = errors.New("invalid analysis report")

// ParseReport decodes a report from model output, tolerating markdown code
// fences and prose around the JSON object.
func ParseReport(text string) (*Report, error) {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidReport)
	}

	var r Report
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	r.DishName = strings.TrimSpace(r.DishName)
	return &r, nil
}

// Level returns the tier for a charted category.
func (r *Report) Level(c pyramid.Category) *Level {
	switch c {
	case pyramid.CerealTuber:
		return &r.Vector.L1
	case pyramid.VegetableFruit:
		return &r.Vector.L2
	case pyramid.MeatEgg:
		return &r.Vector.L3
	case pyramid.DairyBeanNut:
		return &r.Vector.L4
	}
	return nil
}

// Pyramid extracts the chart input.
func (r *Report) Pyramid() pyramid.Pyramid {
	return pyramid.Pyramid{
		L1:   r.Vector.L1.TotalValue.Float(),
		L2:   r.Vector.L2.TotalValue.Float(),
		L3:   r.Vector.L3.TotalValue.Float(),
		L4:   r.Vector.L4.TotalValue.Float(),
		Oil:  r.Vector.L5.Oil.Float(),
		Salt: r.Vector.L5.Salt.Float(),
	}
}

// VisionReport is the first-pass description of a photo.
type VisionReport struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason"`
	Report  string `json:"report"`
}

// NutritionVector sums [L1, L2, L3, L4, oil, salt].
type NutritionVector [6]float64

// Add accumulates a pyramid into the vector.
func (v *NutritionVector) Add(p pyramid.Pyramid) {
	for i, x := range [6]float64{p.L1, p.L2, p.L3, p.L4, p.Oil, p.Salt} {
		v[i] = pyramid.Saturate(v[i] + pyramid.Clamp(x))
	}
}

// NutritionSummary is the per-record tier totals.
type NutritionSummary struct {
	L1   float64 `json:"L1"`
	L2   float64 `json:"L2"`
	L3   float64 `json:"L3"`
	L4   float64 `json:"L4"`
	Oil  float64 `json:"oil"`
	Salt float64 `json:"salt"`
}

// IngredientCount counts the main ingredients and seasonings of a record.
type IngredientCount struct {
	Main      int `json:"main"`
	Seasoning int `json:"seasoning"`
}
