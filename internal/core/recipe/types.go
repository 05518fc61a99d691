package recipe

// SourceType 食譜來源
type SourceType string

const (
	SourceText   SourceType = "text"
	SourcePantry SourceType = "pantry"
	SourceOCR    SourceType = "ocr"
	SourceSocial SourceType = "social"
)

// Valid 是否為已知的來源
func (s SourceType) Valid() bool {
	switch s {
	case SourceText, SourcePantry, SourceOCR, SourceSocial:
		return true
	}
	return false
}

// VersionType 食譜版本名稱
type VersionType string

const (
	VersionStudent  VersionType = "student"
	VersionProfi    VersionType = "profi"
	VersionAirfryer VersionType = "airfryer"
)

// AllVersions 三個版本，順序固定
var AllVersions = []VersionType{VersionStudent, VersionProfi, VersionAirfryer}

// Valid 是否為已知的版本
func (v VersionType) Valid() bool {
	switch v {
	case VersionStudent, VersionProfi, VersionAirfryer:
		return true
	}
	return false
}

// DefaultCategory 食材未標示分類時使用
const DefaultCategory = "Sonstiges"

// Categories 模型可使用的購物分類
var Categories = []string{
	"Gemüse", "Milchprodukte", "Fleisch", "Fisch", "Vorrat",
	"Gewürze", "Obst", "Backwaren", "Getränke", "Sonstiges",
}

// Ingredient 食材
type Ingredient struct {
	Item     string  `json:"item"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
}

// Version 單一版本的做法
type Version struct {
	Title       string       `json:"title"`
	PrepTime    string       `json:"prepTime"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tips        string       `json:"tips"`
	Calories    *float64     `json:"calories,omitempty"`
}

// Versions 三個必填版本
type Versions struct {
	Student  Version `json:"student"`
	Profi    Version `json:"profi"`
	Airfryer Version `json:"airfryer"`
}

// Get 依名稱取得版本
func (v *Versions) Get(name VersionType) (*Version, bool) {
	switch name {
	case VersionStudent:
		return &v.Student, true
	case VersionProfi:
		return &v.Profi, true
	case VersionAirfryer:
		return &v.Airfryer, true
	}
	return nil, false
}

// Recipe 食譜實體，建立後不可修改，只能刪除
type Recipe struct {
	ID           string     `json:"recipeId"`
	OriginalName string     `json:"originalName"`
	Versions     Versions   `json:"versions"`
	SourceType   SourceType `json:"sourceType"`
	CreatedAt    string     `json:"createdAt"`
}

// TimestampLayout createdAt 格式（UTC，毫秒）
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

