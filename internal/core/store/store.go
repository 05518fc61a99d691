package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chefmate/internal/core/planner"
	"chefmate/internal/core/recipe"
	"chefmate/internal/core/shopping"
	"chefmate/internal/infrastructure/kv"
	"chefmate/internal/pkg/common"
	"chefmate/internal/pkg/metrics"
)

// 持久層的鍵
const (
	KeyRecipes      = "recipes"
	KeyPlanner      = "planner"
	KeyShoppingList = "shoppingList"
	KeyCredential   = "credential"
)

// Store 應用狀態控制器。
// 每個命令先在鎖內更新記憶體，再整批寫回持久層；寫入失敗時記憶體狀態保留。
type Store struct {
	mu      sync.RWMutex
	backend kv.Store
	now     func() time.Time

	recipes    []recipe.Recipe
	planner    []planner.Day
	shopping   []shopping.Item
	credential string

	credentialListeners []func(string)
}

// Option 設定 Store
type Option func(*Store)

// WithClock 指定時間來源，主要用於測試
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New 創建 Store，呼叫 Load 前狀態為空
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		now:      time.Now,
		recipes:  []recipe.Recipe{},
		shopping: []shopping.Item{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.planner = planner.NewWeek(s.now())
	return s
}

// OnCredentialChange 註冊憑證變更通知，Load 與 SetCredential 後觸發
func (s *Store) OnCredentialChange(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentialListeners = append(s.credentialListeners, fn)
}

// Load 從持久層讀取所有資料。缺少的鍵使用預設值，損毀的鍵記錄警告後使用預設值。
func (s *Store) Load(ctx context.Context) error {
	recipes, err := readSlot[[]recipe.Recipe](ctx, s.backend, KeyRecipes)
	if err != nil {
		return err
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}

	days, err := readSlot[[]planner.Day](ctx, s.backend, KeyPlanner)
	if err != nil {
		return err
	}
	if !planner.Valid(days) {
		if days != nil {
			common.LogWarn("計畫資料無效，重新建立", zap.Int("days", len(days)))
		}
		days = planner.NewWeek(s.now())
	}

	items, err := readSlot[[]shopping.Item](ctx, s.backend, KeyShoppingList)
	if err != nil {
		return err
	}
	if items == nil {
		items = []shopping.Item{}
	}

	credential, err := readSlot[string](ctx, s.backend, KeyCredential)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.recipes = recipes
	s.planner = days
	s.shopping = items
	s.credential = credential
	listeners := s.credentialListeners
	s.updateGauges()
	s.mu.Unlock()

	common.LogInfo("狀態已載入",
		zap.Int("recipes", len(recipes)),
		zap.Int("shopping_items", len(items)),
		zap.Bool("has_credential", credential != ""),
	)

	for _, fn := range listeners {
		fn(credential)
	}
	return nil
}

// readSlot 讀取單一鍵，不存在或 JSON 損毀時回傳零值
func readSlot[T any](ctx context.Context, backend kv.Store, key string) (T, error) {
	var out T
	data, found, err := backend.Get(ctx, key)
	if err != nil {
		return out, fmt.Errorf("load %s: %w", key, err)
	}
	if !found || len(data) == 0 {
		return out, nil
	}
	if err := common.ParseJSONBytes(data, &out); err != nil {
		common.LogWarn("儲存資料損毀，使用預設值", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, nil
	}
	return out, nil
}

// flush 將所有鍵寫回持久層，呼叫端需持有鎖
func (s *Store) flush(ctx context.Context) error {
	slots := []struct {
		key   string
		value any
	}{
		{KeyRecipes, s.recipes},
		{KeyPlanner, s.planner},
		{KeyShoppingList, s.shopping},
		{KeyCredential, s.credential},
	}
	for _, slot := range slots {
		data, err := json.Marshal(slot.value)
		if err != nil {
			metrics.StoreFlushes.WithLabelValues("error").Inc()
			return fmt.Errorf("encode %s: %w", slot.key, err)
		}
		if err := s.backend.Set(ctx, slot.key, data); err != nil {
			metrics.StoreFlushes.WithLabelValues("error").Inc()
			common.LogError("寫入儲存失敗", zap.String("key", slot.key), zap.Error(err))
			return fmt.Errorf("save %s: %w", slot.key, err)
		}
	}
	metrics.StoreFlushes.WithLabelValues("success").Inc()
	s.updateGauges()
	return nil
}

func (s *Store) updateGauges() {
	metrics.StoredRecipes.Set(float64(len(s.recipes)))
	metrics.ShoppingItems.Set(float64(len(s.shopping)))
}

// regenerate 重新計算購物清單並保留相同合併鍵的勾選狀態，呼叫端需持有鎖
func (s *Store) regenerate() {
	s.shopping = shopping.CarryChecked(s.shopping, shopping.Aggregate(s.planner, s.recipes))
}

// AddRecipe 新增食譜到最前面
func (s *Store) AddRecipe(ctx context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recipes = append([]recipe.Recipe{r}, s.recipes...)
	return s.flush(ctx)
}

// RemoveRecipe 刪除食譜。計畫中的引用保留，重新彙整時會被略過。
func (s *Store) RemoveRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("remove %s: %w", id, common.ErrRecipeNotFound)
	}
	s.recipes = append(s.recipes[:idx:idx], s.recipes[idx+1:]...)
	return s.flush(ctx)
}

func (s *Store) indexOf(id string) int {
	for i := range s.recipes {
		if s.recipes[i].ID == id {
			return i
		}
	}
	return -1
}

// SetPlannerSlot 將食譜版本排入某天某餐並重新產生購物清單
func (s *Store) SetPlannerSlot(ctx context.Context, day int, meal planner.Meal, recipeID string, version recipe.VersionType) error {
	if !version.Valid() {
		return common.NewValidationError("unknown version %q", version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlot(day, meal); err != nil {
		return err
	}
	if s.indexOf(recipeID) < 0 {
		return fmt.Errorf("plan %s: %w", recipeID, common.ErrRecipeNotFound)
	}

	s.planner[day].Slots.Set(meal, &planner.Slot{RecipeID: recipeID, Version: version})
	s.regenerate()
	return s.flush(ctx)
}

// ClearPlannerSlot 清除某天某餐並重新產生購物清單
func (s *Store) ClearPlannerSlot(ctx context.Context, day int, meal planner.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlot(day, meal); err != nil {
		return err
	}

	s.planner[day].Slots.Set(meal, nil)
	s.regenerate()
	return s.flush(ctx)
}

func (s *Store) checkSlot(day int, meal planner.Meal) error {
	if day < 0 || day >= len(s.planner) {
		return common.NewValidationError("day must be between 0 and %d", len(s.planner)-1)
	}
	_, err := planner.ParseMeal(string(meal))
	return err
}

// ToggleShoppingItem 切換購物清單項目的勾選狀態
func (s *Store) ToggleShoppingItem(ctx context.Context, index int) (shopping.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.shopping) {
		return shopping.Item{}, common.NewValidationError("shopping item index %d out of range", index)
	}
	s.shopping[index].Checked = !s.shopping[index].Checked
	item := s.shopping[index]
	return item, s.flush(ctx)
}

// SetCredential 保存使用者輸入的 API 金鑰，空字串代表清除
func (s *Store) SetCredential(ctx context.Context, credential string) error {
	s.mu.Lock()
	s.credential = strings.TrimSpace(credential)
	err := s.flush(ctx)
	value := s.credential
	listeners := s.credentialListeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(value)
	}
	return err
}

// Recipes 所有食譜，最新的在前
func (s *Store) Recipes() []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]recipe.Recipe{}, s.recipes...)
}

// Recipe 依 id 取得食譜
func (s *Store) Recipe(id string) (recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.recipes[idx], nil
	}
	return recipe.Recipe{}, fmt.Errorf("get %s: %w", id, common.ErrRecipeNotFound)
}

// Planner 七天計畫
func (s *Store) Planner() []planner.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return planner.Clone(s.planner)
}

// ShoppingList 目前購物清單
func (s *Store) ShoppingList() []shopping.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return shopping.Clone(s.shopping)
}

// Credential 使用者輸入的 API 金鑰
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Ping 檢查持久層
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
