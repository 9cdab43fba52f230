// Package drilldown lists the ingredients behind one wedge of the pyramid.
//
// A report's own per-level ingredient list is used when present. Otherwise
// the main ingredients are classified by keyword, which is a heuristic and
// will misfile unusual names.
package drilldown

import (
	"strings"

	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/bobmcallan/pagoda/internal/pyramid"
)

// overrides are whole names that contain a fragment of the wrong tier, such
// as "eggplant" containing "egg". They are checked before keywords.
var overrides = []struct {
	word     string
	category pyramid.Category
}{
	{"eggplant", pyramid.VegetableFruit},
	{"butternut", pyramid.VegetableFruit},
	{"coconut", pyramid.VegetableFruit},
	{"bean sprout", pyramid.VegetableFruit},
	{"green bean", pyramid.VegetableFruit},
	{"string bean", pyramid.VegetableFruit},
	{"doughnut", pyramid.CerealTuber},
	{"donut", pyramid.CerealTuber},
	{"椰", pyramid.VegetableFruit},
	{"豆芽", pyramid.VegetableFruit},
	{"四季豆", pyramid.VegetableFruit},
	{"蛋糕", pyramid.CerealTuber},
	{"蛋挞", pyramid.CerealTuber},
}

// keywords maps each tier to name fragments. Order matters: the first tier
// with a matching fragment wins, so the narrower tiers come first.
var keywords = []struct {
	category pyramid.Category
	words    []string
}{
	{pyramid.DairyBeanNut, []string{
		"奶", "酪", "豆腐", "豆浆", "豆干", "腐竹", "黄豆", "黑豆", "坚果", "花生", "核桃", "杏仁", "腰果", "芝麻", "瓜子",
		"milk", "cheese", "yogurt", "tofu", "soy", "bean", "nut", "almond", "peanut", "walnut", "cashew",
	}},
	{pyramid.MeatEgg, []string{
		"肉", "蛋", "鸡", "鸭", "鹅", "鱼", "虾", "蟹", "贝", "排骨", "牛", "羊", "猪", "火腿", "香肠", "培根",
		"meat", "egg", "chicken", "duck", "beef", "pork", "lamb", "fish", "shrimp", "prawn", "crab", "ham", "sausage", "bacon",
	}},
	{pyramid.CerealTuber, []string{
		"米", "饭", "面", "粉", "馒头", "包子", "饺子", "饼", "粥", "麦", "玉米", "薯", "芋", "山药", "寿司",
		"rice", "noodle", "bread", "pasta", "wheat", "oat", "corn", "potato", "taro", "dumpling", "bun",
	}},
	{pyramid.VegetableFruit, []string{
		"菜", "瓜", "果", "茄", "椒", "萝卜", "笋", "菇", "蘑", "葱", "西兰花", "花菜", "豆角", "莴", "藻", "海带", "橙", "柑", "桃", "梨", "蕉", "莓", "柿",
		"vegetable", "fruit", "tomato", "carrot", "broccoli", "lettuce", "cabbage", "spinach", "mushroom", "pepper", "apple", "banana", "orange", "berry",
	}},
}

// Classify returns the tier a single ingredient name most likely belongs
// to. ok is false when no keyword matches.
func Classify(name string) (pyramid.Category, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, false
	}
	for _, o := range overrides {
		if strings.Contains(n, o.word) {
			return o.category, true
		}
	}
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(n, w) {
				return k.category, true
			}
		}
	}
	return 0, false
}

// Ingredients returns the ingredients charted under category, de-duplicated
// in report order.
func Ingredients(r *models.Report, category pyramid.Category) []string {
	if r == nil {
		return nil
	}
	level := r.Level(category)
	if level == nil {
		return nil
	}
	if len(level.Ingredients) > 0 {
		return dedupe(level.Ingredients)
	}

	var matched []string
	for _, name := range r.MainIngredients {
		if c, ok := Classify(name); ok && c == category {
			matched = append(matched, name)
		}
	}
	return dedupe(matched)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
