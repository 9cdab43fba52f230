package models

import (
	"fmt"
	"strings"
	"time"
)

// Analysis is a stored report for one uploaded photo.
type Analysis struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	DishName  string    `json:"dish_name"`
	ImageKey  string    `json:"image_key,omitempty"`
	Report    Report    `json:"report"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the tier totals of the record.
func (a *Analysis) Summary() NutritionSummary {
	p := a.Report.Pyramid()
	return NutritionSummary{L1: p.L1, L2: p.L2, L3: p.L3, L4: p.L4, Oil: p.Oil, Salt: p.Salt}
}

// IngredientCount counts the ingredients of the record.
func (a *Analysis) IngredientCount() IngredientCount {
	return IngredientCount{
		Main:      len(a.Report.MainIngredients),
		Seasoning: len(a.Report.Seasonings),
	}
}

// AnonymousNickname is the placeholder the client shows before a user has
// set a nickname.
const AnonymousNickname = "匿名用户"

// Profile is the user-facing identity attached to analyses.
type Profile struct {
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoggedIn reports whether the profile carries a real nickname.
func (p *Profile) LoggedIn() bool {
	n := strings.TrimSpace(p.Nickname)
	return n != "" && n != AnonymousNickname
}

// MealTime is a named window of the day.
type MealTime string

const (
	MealBreakfast MealTime = "breakfast"
	MealLunch     MealTime = "lunch"
	MealDinner    MealTime = "dinner"
)

// mealHours are [start, end) hours. Dinner wraps past midnight so every
// hour of the day belongs to exactly one meal.
var mealHours = map[MealTime][2]int{
	MealBreakfast: {5, 10},
	MealLunch:     {10, 15},
	MealDinner:    {15, 5},
}

// ParseMealTime accepts breakfast, lunch or dinner.
func ParseMealTime(s string) (MealTime, error) {
	m := MealTime(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := mealHours[m]; !ok {
		return "", fmt.Errorf("unknown meal time %q (want breakfast, lunch or dinner)", s)
	}
	return m, nil
}

// Contains reports whether t's hour falls in the meal's window.
func (m MealTime) Contains(t time.Time) bool {
	hours, ok := mealHours[m]
	if !ok {
		return false
	}
	h := t.Hour()
	if hours[0] > hours[1] {
		return h >= hours[0] || h < hours[1]
	}
	return h >= hours[0] && h < hours[1]
}

// MealAt returns the meal whose window contains t.
func MealAt(t time.Time) MealTime {
	for _, m := range []MealTime{MealBreakfast, MealLunch, MealDinner} {
		if m.Contains(t) {
			return m
		}
	}
	return MealDinner
}
