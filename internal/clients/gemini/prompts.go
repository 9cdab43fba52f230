package gemini

import "fmt"

const visionUserPrompt = "分析图中菜品信息"

const visionSystemPrompt = `You are a food recognition assistant for a dietary tracking app.

Look at the photo and decide whether it clearly shows a prepared dish or food.
Respond with a single JSON object:
{
  "is_valid": true | false,
  "reason": "why the photo cannot be used (blurry, not food, no image); empty when valid",
  "report": "detailed ingredient report; empty when invalid"
}

When valid, the report names the dish, lists every visible main ingredient
with an estimated weight in grams, lists seasonings, and describes the
cooking method (stir-fried, deep-fried, steamed, boiled, raw) since it
determines oil and salt use. Write the report in Chinese.`

const summarizeSystemPrompt = `You map a dish description onto the Chinese Dietary Pagoda.

Tiers:
- L1 cereals and tubers (rice, noodles, bread, potato, corn)
- L2 vegetables and fruit
- L3 meat, poultry, fish, seafood and eggs
- L4 dairy, soybeans and nuts
- L5 oil and salt

Respond with a single JSON object and nothing else:
{
  "dish_name": "string",
  "main_ingredients": ["string"],
  "seasonings": ["string"],
  "pagoda_nutrition_vector": {
    "L1": {"total_value": number, "ingredients": ["string"], "details": {"ingredient": number}},
    "L2": {"total_value": number, "ingredients": ["string"], "details": {"ingredient": number}},
    "L3": {"total_value": number, "ingredients": ["string"], "details": {"ingredient": number}},
    "L4": {"total_value": number, "ingredients": ["string"], "details": {"ingredient": number}},
    "L5": {"ingredients": ["string"], "oil": number, "salt": number}
  },
  "feature_tags": ["string"],
  "description": "string"
}

All weights are grams for one serving. total_value is the sum of the tier's
details. Use 0 and an empty list for tiers the dish does not contain.`

func buildSummarizePrompt(visionReport string) string {
	return fmt.Sprintf("请根据以下事实进行 L1-L5 映射计算：\n%s", visionReport)
}
