package shopping

import (
	"strings"

	"chefmate/internal/core/recipe"
)

// MergeKey 食材合併鍵：名稱去空白轉小寫，單位原樣保留。
// 不做單位換算，同名不同單位視為不同項目。
func MergeKey(item, unit string) string {
	return strings.ToLower(strings.TrimSpace(item)) + "-" + unit
}

// IngredientKey 取得食材的合併鍵
func IngredientKey(ing recipe.Ingredient) string {
	return MergeKey(ing.Item, ing.Unit)
}
