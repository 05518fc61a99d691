package shopping

import (
	"sort"

	"chefmate/internal/core/planner"
	"chefmate/internal/core/recipe"
)

// Item 購物清單項目，由計畫與食譜推導而來
type Item struct {
	Item      string   `json:"item"`
	Amount    float64  `json:"amount"`
	Unit      string   `json:"unit"`
	Category  string   `json:"category"`
	Checked   bool     `json:"checked"`
	RecipeIDs []string `json:"recipeIds"`
}

// Key 取得項目的合併鍵
func (i Item) Key() string {
	return MergeKey(i.Item, i.Unit)
}

// Group 同一分類的項目
type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// Aggregate 依七天三餐的固定順序走訪計畫，合併引用到的食譜版本食材。
// 已刪除的食譜或未知版本直接略過；輸出依分類名稱排序，同分類內保留走訪順序。
func Aggregate(days []planner.Day, recipes []recipe.Recipe) []Item {
	byID := make(map[string]*recipe.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	index := make(map[string]int)
	items := make([]Item, 0)

	for _, day := range days {
		for _, meal := range planner.Meals {
			slot := day.Slots.Get(meal)
			if slot == nil {
				continue
			}
			r, ok := byID[slot.RecipeID]
			if !ok {
				continue
			}
			version, ok := r.Versions.Get(slot.Version)
			if !ok {
				continue
			}

			for _, ing := range version.Ingredients {
				key := IngredientKey(ing)
				if pos, exists := index[key]; exists {
					items[pos].Amount += ing.Amount
					items[pos].RecipeIDs = append(items[pos].RecipeIDs, r.ID)
					continue
				}

				category := ing.Category
				if category == "" {
					category = recipe.DefaultCategory
				}
				index[key] = len(items)
				items = append(items, Item{
					Item:      ing.Item,
					Amount:    ing.Amount,
					Unit:      ing.Unit,
					Category:  category,
					RecipeIDs: []string{r.ID},
				})
			}
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Category < items[b].Category
	})
	return items
}

// CarryChecked 將舊清單的勾選狀態依合併鍵帶到新清單，新出現的項目維持未勾選
func CarryChecked(prev, next []Item) []Item {
	checked := make(map[string]bool, len(prev))
	for _, it := range prev {
		if it.Checked {
			checked[it.Key()] = true
		}
	}
	for i := range next {
		next[i].Checked = checked[next[i].Key()]
	}
	return next
}

// GroupByCategory 依分類分組，分類順序與清單順序一致
func GroupByCategory(items []Item) []Group {
	groups := make([]Group, 0)
	pos := make(map[string]int)
	for _, it := range items {
		idx, ok := pos[it.Category]
		if !ok {
			idx = len(groups)
			pos[it.Category] = idx
			groups = append(groups, Group{Category: it.Category})
		}
		groups[idx].Items = append(groups[idx].Items, it)
	}
	return groups
}

// Clone 深拷貝清單
func Clone(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		out[i].RecipeIDs = append(make([]string, 0, len(it.RecipeIDs)), it.RecipeIDs...)
	}
	return out
}
