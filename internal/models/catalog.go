package models

import (
	"strings"
	"time"
)

// Dish is one menu item of a canteen window, analysed ahead of time so the
// client can browse nutrition without taking a photo.
type Dish struct {
	ID        string    `json:"id"`
	Canteen   string    `json:"canteen"`
	Window    string    `json:"window"`
	MealType  string    `json:"meal_type"`
	DishName  string    `json:"dish_name"`
	Report    Report    `json:"report"`
	CreatedAt time.Time `json:"created_at"`
}

// Menu is the import format: canteen -> window -> meal type -> dishes.
// Meal types are free text ("早餐", "午餐/晚餐") as the canteens label them.
type Menu map[string]map[string]map[string][]Report

// DishFilter narrows a dish listing. Empty fields match everything.
type DishFilter struct {
	Canteen  string
	Window   string
	MealType string
}

// Matches reports whether d passes the filter.
func (f DishFilter) Matches(d *Dish) bool {
	return (f.Canteen == "" || f.Canteen == d.Canteen) &&
		(f.Window == "" || f.Window == d.Window) &&
		(f.MealType == "" || f.MealType == d.MealType)
}

// Nutrient names one searchable quantity of a dish.
type Nutrient string

const (
	NutrientL1   Nutrient = "l1"
	NutrientL2   Nutrient = "l2"
	NutrientL3   Nutrient = "l3"
	NutrientL4   Nutrient = "l4"
	NutrientOil  Nutrient = "oil"
	NutrientSalt Nutrient = "salt"
)

// Nutrients lists every searchable nutrient in vector order.
var Nutrients = []Nutrient{NutrientL1, NutrientL2, NutrientL3, NutrientL4, NutrientOil, NutrientSalt}

// Of returns the nutrient's amount in r.
func (n Nutrient) Of(r *Report) float64 {
	p := r.Pyramid()
	switch n {
	case NutrientL1:
		return p.L1
	case NutrientL2:
		return p.L2
	case NutrientL3:
		return p.L3
	case NutrientL4:
		return p.L4
	case NutrientOil:
		return p.Oil
	case NutrientSalt:
		return p.Salt
	}
	return 0
}

// DishQuery selects dishes where any listed nutrient reaches Min. With
// Exclusive set the comparison is strictly greater.
type DishQuery struct {
	Nutrients []Nutrient
	Min       float64
	Exclusive bool
	Limit     int
}

// Matches reports whether d satisfies the query.
func (q DishQuery) Matches(d *Dish) bool {
	for _, n := range q.Nutrients {
		v := n.Of(&d.Report)
		if v > q.Min || (!q.Exclusive && v == q.Min) {
			return true
		}
	}
	return false
}

// GuidelineChunk is one searchable passage of an ingested dietary
// guideline document.
type GuidelineChunk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Page      int       `json:"page"`
	Seq       int       `json:"seq"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ContainsAll reports whether the chunk mentions every term, ignoring case.
func (c *GuidelineChunk) ContainsAll(terms []string) bool {
	text := strings.ToLower(c.Text)
	for _, t := range terms {
		if !strings.Contains(text, strings.ToLower(t)) {
			return false
		}
	}
	return true
}
