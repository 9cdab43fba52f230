package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pagoda/internal/pyramid"
)

const tomatoEggJSON = `{
	"dish_name": "西红柿炒鸡蛋",
	"main_ingredients": ["西红柿", "鸡蛋"],
	"seasonings": ["盐", "味精"],
	"pagoda_nutrition_vector": {
		"L1": { "total_value": 0, "ingredients": [], "details": { "grains": 0, "tubers": 0 } },
		"L2": { "total_value": 200, "ingredients": ["西红柿"], "details": { "vegetables": 200, "fruits": 0 } },
		"L3": { "total_value": 100, "ingredients": ["鸡蛋"], "details": { "animal_meat": 0, "seafood": 0, "eggs": 100 } },
		"L4": { "total_value": 0, "ingredients": [], "details": { "dairy": 0, "soy_nuts": 0 } },
		"L5": { "ingredients": [], "oil": 15.5, "salt": 3.2 }
	},
	"feature_tags": ["家常味", "快炒"],
	"description": "酸甜可口的家常菜"
}`

func TestParseReport_Plain(t *testing.T) {
	r, err := ParseReport(tomatoEggJSON)
	require.NoError(t, err)

	assert.Equal(t, "西红柿炒鸡蛋", r.DishName)
	assert.Equal(t, []string{"西红柿", "鸡蛋"}, r.MainIngredients)
	assert.Equal(t, 200.0, r.Vector.L2.TotalValue.Float())
	assert.Equal(t, []string{"鸡蛋"}, r.Vector.L3.Ingredients)
	assert.Equal(t, 100.0, r.Vector.L3.Details["eggs"].Float())

	p := r.Pyramid()
	assert.Equal(t, pyramid.Pyramid{L1: 0, L2: 200, L3: 100, L4: 0, Oil: 15.5, Salt: 3.2}, p)
}

func TestParseReport_StripsFences(t *testing.T) {
	r, err := ParseReport("Here you go:\n```json\n" + tomatoEggJSON + "\n```\n")
	require.NoError(t, err)
	assert.Equal(t, "西红柿炒鸡蛋", r.DishName)
}

func TestParseReport_Invalid(t *testing.T) {
	_, err := ParseReport("no json here")
	assert.True(t, errors.Is(err, ErrInvalidReport))

	_, err = ParseReport(`{"dish_name": ["not", "a", "string"]}`)
	assert.True(t, errors.Is(err, ErrInvalidReport))
}

func TestAmount_Lenient(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`12.5`, 12.5},
		{`"80"`, 80},
		{`"80g"`, 80},
		{`"15 克"`, 15},
		{`null`, 0},
		{`-20`, 0},
		{`"-3"`, 0},
		{`"a lot"`, 0},
		{`true`, 0},
		{`{"x":1}`, 0},
	}
	for _, tt := range tests {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &a), tt.raw)
		assert.Equal(t, tt.want, a.Float(), tt.raw)
	}
}

func TestReport_LevelLookup(t *testing.T) {
	r, err := ParseReport(tomatoEggJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"西红柿"}, r.Level(pyramid.VegetableFruit).Ingredients)
	assert.Nil(t, r.Level(pyramid.Category(9)))
}

func TestNutritionVector_Add(t *testing.T) {
	var v NutritionVector
	v.Add(pyramid.Pyramid{L1: 10, L2: 20, L3: 30, L4: 40, Oil: 5, Salt: 1})
	v.Add(pyramid.Pyramid{L1: 1, L2: -5, Oil: 2})
	assert.Equal(t, NutritionVector{11, 20, 30, 40, 7, 1}, v)
}

func TestAnalysis_SummaryAndCounts(t *testing.T) {
	r, err := ParseReport(tomatoEggJSON)
	require.NoError(t, err)
	a := Analysis{Report: *r}

	assert.Equal(t, NutritionSummary{L2: 200, L3: 100, Oil: 15.5, Salt: 3.2}, a.Summary())
	assert.Equal(t, IngredientCount{Main: 2, Seasoning: 2}, a.IngredientCount())
}

func TestMealTime(t *testing.T) {
	m, err := ParseMealTime(" Lunch ")
	require.NoError(t, err)
	assert.Equal(t, MealLunch, m)

	_, err = ParseMealTime("supper")
	assert.Error(t, err)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	assert.True(t, MealBreakfast.Contains(day.Add(5*time.Hour)))
	assert.False(t, MealBreakfast.Contains(day.Add(10*time.Hour)))
	assert.True(t, MealLunch.Contains(day.Add(10*time.Hour)))
	assert.True(t, MealDinner.Contains(day.Add(22*time.Hour+59*time.Minute)))
	assert.True(t, MealDinner.Contains(day.Add(23*time.Hour+30*time.Minute)))
	assert.True(t, MealDinner.Contains(day.Add(2*time.Hour+30*time.Minute)))
	assert.False(t, MealDinner.Contains(day.Add(5*time.Hour)))
}

func TestMealTime_EveryHourBelongsToOneMeal(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		at := day.Add(time.Duration(h)*time.Hour + 30*time.Minute)
		n := 0
		for _, m := range []MealTime{MealBreakfast, MealLunch, MealDinner} {
			if m.Contains(at) {
				n++
			}
		}
		assert.Equal(t, 1, n, "hour %d", h)
	}
	assert.Equal(t, MealDinner, MealAt(day.Add(4*time.Hour+30*time.Minute)))
	assert.Equal(t, MealBreakfast, MealAt(day.Add(5*time.Hour)))
}

func TestProfile_LoggedIn(t *testing.T) {
	assert.False(t, (&Profile{}).LoggedIn())
	assert.False(t, (&Profile{Nickname: AnonymousNickname}).LoggedIn())
	assert.True(t, (&Profile{Nickname: "小王"}).LoggedIn())
}
