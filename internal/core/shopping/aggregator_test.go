package shopping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefmate/internal/core/planner"
	"chefmate/internal/core/recipe"
)

func version(ings ...recipe.Ingredient) recipe.Version {
	return recipe.Version{
		Title:       "v",
		PrepTime:    "10 min",
		Ingredients: ings,
		Steps:       []string{"cook"},
	}
}

func makeRecipe(id string, student, profi []recipe.Ingredient) recipe.Recipe {
	return recipe.Recipe{
		ID:           id,
		OriginalName: id,
		Versions: recipe.Versions{
			Student:  version(student...),
			Profi:    version(profi...),
			Airfryer: version(student...),
		},
		SourceType: recipe.SourceText,
	}
}

func plan(slots map[int]map[planner.Meal]planner.Slot) []planner.Day {
	week := planner.NewWeek(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for day, meals := range slots {
		for meal, s := range meals {
			slot := s
			week[day].Slots.Set(meal, &slot)
		}
	}
	return week
}

func TestMergeKey(t *testing.T) {
	assert.Equal(t, "egg-pc", MergeKey("  Egg ", "pc"))
	assert.Equal(t, MergeKey("EGG", "g"), MergeKey("egg", "g"))
	assert.NotEqual(t, MergeKey("egg", "g"), MergeKey("egg", "G"))
	assert.NotEqual(t, MergeKey("egg", "g"), MergeKey("egg", "pc"))
}

func TestAggregateMergesCaseInsensitively(t *testing.T) {
	r1 := makeRecipe("R1", []recipe.Ingredient{{Item: "Egg", Amount: 2, Unit: "pc"}}, nil)
	r2 := makeRecipe("R2", []recipe.Ingredient{{Item: "egg", Amount: 3, Unit: "pc"}}, nil)
	days := plan(map[int]map[planner.Meal]planner.Slot{
		0: {
			planner.MealBreakfast: {RecipeID: "R1", Version: recipe.VersionStudent},
			planner.MealLunch:     {RecipeID: "R2", Version: recipe.VersionStudent},
		},
	})

	items := Aggregate(days, []recipe.Recipe{r1, r2})

	require.Len(t, items, 1)
	assert.Equal(t, Item{
		Item:      "Egg",
		Amount:    5,
		Unit:      "pc",
		Category:  recipe.DefaultCategory,
		RecipeIDs: []string{"R1", "R2"},
	}, items[0])

	days[0].Slots.Set(planner.MealLunch, nil)
	items = Aggregate(days, []recipe.Recipe{r1, r2})

	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].Amount)
	assert.Equal(t, []string{"R1"}, items[0].RecipeIDs)
}

func TestAggregateKeepsDifferentUnitsApart(t *testing.T) {
	r1 := makeRecipe("R1", []recipe.Ingredient{
		{Item: "Mehl", Amount: 200, Unit: "g", Category: "Vorrat"},
		{Item: "mehl", Amount: 1, Unit: "EL", Category: "Vorrat"},
	}, nil)
	days := plan(map[int]map[planner.Meal]planner.Slot{
		3: {planner.MealDinner: {RecipeID: "R1", Version: recipe.VersionStudent}},
	})

	items := Aggregate(days, []recipe.Recipe{r1})
	require.Len(t, items, 2)
	assert.Equal(t, "g", items[0].Unit)
	assert.Equal(t, "EL", items[1].Unit)
}

func TestAggregateSkipsDanglingAndEmptySlots(t *testing.T) {
	r1 := makeRecipe("R1", []recipe.Ingredient{{Item: "Milch", Amount: 1, Unit: "l", Category: "Milchprodukte"}}, nil)
	days := plan(map[int]map[planner.Meal]planner.Slot{
		0: {planner.MealBreakfast: {RecipeID: "deleted", Version: recipe.VersionStudent}},
		1: {planner.MealLunch: {RecipeID: "R1", Version: recipe.VersionStudent}},
		2: {planner.MealDinner: {RecipeID: "R1", Version: recipe.VersionType("vegan")}},
	})

	items := Aggregate(days, []recipe.Recipe{r1})
	require.Len(t, items, 1)
	assert.Equal(t, []string{"R1"}, items[0].RecipeIDs)

	onlyDangling := plan(map[int]map[planner.Meal]planner.Slot{
		0: {planner.MealBreakfast: {RecipeID: "deleted", Version: recipe.VersionStudent}},
	})
	assert.Empty(t, Aggregate(onlyDangling, []recipe.Recipe{r1}))
	assert.NotNil(t, Aggregate(nil, nil))
}

func TestAggregateUsesSelectedVersion(t *testing.T) {
	r1 := makeRecipe("R1",
		[]recipe.Ingredient{{Item: "Nudeln", Amount: 100, Unit: "g"}},
		[]recipe.Ingredient{{Item: "Trüffel", Amount: 5, Unit: "g"}},
	)
	days := plan(map[int]map[planner.Meal]planner.Slot{
		0: {planner.MealDinner: {RecipeID: "R1", Version: recipe.VersionProfi}},
	})

	items := Aggregate(days, []recipe.Recipe{r1})
	require.Len(t, items, 1)
	assert.Equal(t, "Trüffel", items[0].Item)
}

func TestAggregateSortsByCategoryStably(t *testing.T) {
	r1 := makeRecipe("R1", []recipe.Ingredient{
		{Item: "Tomate", Amount: 2, Unit: "pc", Category: "Gemüse"},
		{Item: "Butter", Amount: 20, Unit: "g", Category: "Milchprodukte"},
		{Item: "Zwiebel", Amount: 1, Unit: "pc", Category: "Gemüse"},
		{Item: "Pfeffer", Amount: 1, Unit: "Prise"},
		{Item: "Basilikum", Amount: 5, Unit: "Blatt", Category: "Gemüse"},
	}, nil)
	days := plan(map[int]map[planner.Meal]planner.Slot{
		0: {planner.MealLunch: {RecipeID: "R1", Version: recipe.VersionStudent}},
	})

	items := Aggregate(days, []recipe.Recipe{r1})

	var names []string
	for _, it := range items {
		names = append(names, it.Item)
	}
	assert.Equal(t, []string{"Tomate", "Zwiebel", "Basilikum", "Butter", "Pfeffer"}, names)

	groups := GroupByCategory(items)
	require.Len(t, groups, 3)
	assert.Equal(t, "Gemüse", groups[0].Category)
	assert.Len(t, groups[0].Items, 3)
	assert.Equal(t, recipe.DefaultCategory, groups[2].Category)
}

func TestAggregateIsIdempotent(t *testing.T) {
	r1 := makeRecipe("R1", []recipe.Ingredient{
		{Item: "Reis", Amount: 150, Unit: "g", Category: "Vorrat"},
		{Item: "Ei", Amount: 0, Unit: "pc"},
	}, nil)
	r2 := makeRecipe("R2", []recipe.Ingredient{{Item: "reis", Amount: 50, Unit: "g", Category: "Vorrat"}}, nil)
	days := plan(map[int]map[planner.Meal]planner.Slot{
		0: {planner.MealLunch: {RecipeID: "R1", Version: recipe.VersionStudent}},
		4: {planner.MealDinner: {RecipeID: "R2", Version: recipe.VersionAirfryer}},
		6: {planner.MealBreakfast: {RecipeID: "R1", Version: recipe.VersionStudent}},
	})
	recipes := []recipe.Recipe{r1, r2}

	first := Aggregate(days, recipes)
	second := Aggregate(days, recipes)
	assert.Equal(t, first, second)
	assert.Equal(t, 350.0, first[1].Amount)
	assert.Equal(t, []string{"R1", "R2", "R1"}, first[1].RecipeIDs)
}

func TestCarryChecked(t *testing.T) {
	prev := []Item{
		{Item: "Egg", Unit: "pc", Checked: true},
		{Item: "Milch", Unit: "l", Checked: false},
		{Item: "Salz", Unit: "g", Checked: true},
	}
	next := []Item{
		{Item: "egg ", Unit: "pc"},
		{Item: "Milch", Unit: "l"},
		{Item: "Butter", Unit: "g"},
	}

	got := CarryChecked(prev, next)
	assert.True(t, got[0].Checked)
	assert.False(t, got[1].Checked)
	assert.False(t, got[2].Checked)
}
