package planner

import (
	"time"

	"chefmate/internal/core/recipe"
	"chefmate/internal/pkg/common"
)

// DaysInWeek 週計畫固定天數
const DaysInWeek = 7

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// Meal 餐別
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// Meals 每天固定的走訪順序
var Meals = []Meal{MealBreakfast, MealLunch, MealDinner}

// ParseMeal 驗證餐別字串
func ParseMeal(s string) (Meal, error) {
	switch m := Meal(s); m {
	case MealBreakfast, MealLunch, MealDinner:
		return m, nil
	}
	return "", common.NewValidationError("unknown meal %q", s)
}

// Slot 某一餐指定的食譜版本，RecipeID 可能指向已刪除的食譜
type Slot struct {
	RecipeID string             `json:"recipeId"`
	Version  recipe.VersionType `json:"version"`
}

// Slots 一天三餐
type Slots struct {
	Breakfast *Slot `json:"breakfast,omitempty"`
	Lunch     *Slot `json:"lunch,omitempty"`
	Dinner    *Slot `json:"dinner,omitempty"`
}

// Get 取得指定餐別，未安排時回傳 nil
func (s *Slots) Get(m Meal) *Slot {
	switch m {
	case MealBreakfast:
		return s.Breakfast
	case MealLunch:
		return s.Lunch
	case MealDinner:
		return s.Dinner
	}
	return nil
}

// Set 設定指定餐別，傳入 nil 代表清除
func (s *Slots) Set(m Meal, slot *Slot) {
	switch m {
	case MealBreakfast:
		s.Breakfast = slot
	case MealLunch:
		s.Lunch = slot
	case MealDinner:
		s.Dinner = slot
	}
}

// Day 計畫中的一天
type Day struct {
	Date  string `json:"date"`
	Slots Slots  `json:"slots"`
}

// NewWeek 從 today 起算連續七天的空白計畫
func NewWeek(today time.Time) []Day {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	days := make([]Day, DaysInWeek)
	for i := range days {
		days[i] = Day{Date: start.AddDate(0, 0, i).Format(DateLayout)}
	}
	return days
}

// Valid 計畫必須剛好七天且日期格式正確
func Valid(days []Day) bool {
	if len(days) != DaysInWeek {
		return false
	}
	for _, d := range days {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			return false
		}
	}
	return true
}

// Clone 深拷貝計畫，避免呼叫端修改內部狀態
func Clone(days []Day) []Day {
	out := make([]Day, len(days))
	for i, d := range days {
		out[i] = Day{Date: d.Date}
		for _, m := range Meals {
			if s := d.Slots.Get(m); s != nil {
				cp := *s
				out[i].Slots.Set(m, &cp)
			}
		}
	}
	return out
}
