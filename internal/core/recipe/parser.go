package recipe

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"chefmate/internal/pkg/common"
)

var (
	nowFunc = time.Now
	newID   = common.GenerateUUID
)

// ParseResponse 從模型原始輸出取出 JSON 片段後交給 Parse
func ParseResponse(raw string, source SourceType) (*Recipe, error) {
	return Parse(common.ExtractJSONObject(raw), source)
}

// Parse 驗證 JSON 片段並映射為 Recipe。
// 語法錯誤回傳 *common.ParseError，結構錯誤回傳 *common.SchemaError。
func Parse(span string, source SourceType) (*Recipe, error) {
	if !source.Valid() {
		return nil, common.NewValidationError("unknown source type %q", source)
	}

	var doc any
	if err := common.ParseJSON(span, &doc); err != nil {
		return nil, &common.ParseError{Err: err}
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return nil, schemaErr("", "(root)", "must be a JSON object")
	}

	name, ok := root["originalName"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, schemaErr("", "originalName", "must be a non-empty string")
	}

	rawVersions, present := root["versions"]
	if !present {
		return nil, schemaErr("", "versions", "is missing")
	}
	versionsObj, ok := rawVersions.(map[string]any)
	if !ok {
		return nil, schemaErr("", "versions", "must be an object")
	}

	for _, vt := range AllVersions {
		if _, present := versionsObj[string(vt)]; !present {
			return nil, schemaErr(string(vt), "", "is missing")
		}
	}
	for _, key := range sortedKeys(versionsObj) {
		if !VersionType(key).Valid() {
			return nil, schemaErr("", "versions."+key, "is not a known version")
		}
	}

	var versions Versions
	for _, vt := range AllVersions {
		target, _ := versions.Get(vt)
		if err := parseVersion(vt, versionsObj[string(vt)], target); err != nil {
			return nil, err
		}
	}

	return &Recipe{
		ID:           newID(),
		OriginalName: name,
		Versions:     versions,
		SourceType:   source,
		CreatedAt:    nowFunc().UTC().Format(TimestampLayout),
	}, nil
}

func parseVersion(vt VersionType, raw any, out *Version) error {
	v := string(vt)
	obj, ok := raw.(map[string]any)
	if !ok {
		return schemaErr(v, "", "must be an object")
	}

	var err error
	if out.Title, err = requiredString(v, obj, "title"); err != nil {
		return err
	}
	if out.PrepTime, err = requiredString(v, obj, "prepTime"); err != nil {
		return err
	}

	tips, present := obj["tips"]
	if !present {
		return schemaErr(v, "tips", "is required")
	}
	if out.Tips, ok = tips.(string); !ok {
		return schemaErr(v, "tips", "must be a string")
	}

	ingredients, err := requiredArray(v, obj, "ingredients")
	if err != nil {
		return err
	}
	out.Ingredients = make([]Ingredient, 0, len(ingredients))
	for i, item := range ingredients {
		ing, err := parseIngredient(v, i, item)
		if err != nil {
			return err
		}
		out.Ingredients = append(out.Ingredients, ing)
	}

	steps, err := requiredArray(v, obj, "steps")
	if err != nil {
		return err
	}
	out.Steps = make([]string, 0, len(steps))
	for i, s := range steps {
		step, ok := s.(string)
		if !ok {
			return schemaErr(v, fmt.Sprintf("steps[%d]", i), "must be a string")
		}
		out.Steps = append(out.Steps, step)
	}

	if cal, present := obj["calories"]; present && cal != nil {
		n, ok := cal.(json.Number)
		if !ok {
			return schemaErr(v, "calories", "must be a number")
		}
		f, err := n.Float64()
		if err != nil {
			return schemaErr(v, "calories", "must be a number")
		}
		out.Calories = &f
	}

	return nil
}

func parseIngredient(version string, idx int, raw any) (Ingredient, error) {
	field := fmt.Sprintf("ingredients[%d]", idx)
	obj, ok := raw.(map[string]any)
	if !ok {
		return Ingredient{}, schemaErr(version, field, "must be an object")
	}

	var ing Ingredient
	if ing.Item, ok = obj["item"].(string); !ok || strings.TrimSpace(ing.Item) == "" {
		return Ingredient{}, schemaErr(version, field+".item", "must be a non-empty string")
	}

	num, ok := obj["amount"].(json.Number)
	if !ok {
		return Ingredient{}, schemaErr(version, field+".amount", "must be a number")
	}
	amount, err := num.Float64()
	if err != nil {
		return Ingredient{}, schemaErr(version, field+".amount", "must be a number")
	}
	ing.Amount = amount

	if ing.Unit, ok = obj["unit"].(string); !ok {
		return Ingredient{}, schemaErr(version, field+".unit", "must be a string")
	}

	if cat, present := obj["category"]; present && cat != nil {
		if ing.Category, ok = cat.(string); !ok {
			return Ingredient{}, schemaErr(version, field+".category", "must be a string")
		}
	}

	return ing, nil
}

func requiredString(version string, obj map[string]any, field string) (string, error) {
	raw, present := obj[field]
	if !present {
		return "", schemaErr(version, field, "is required")
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", schemaErr(version, field, "must be a non-empty string")
	}
	return s, nil
}

func requiredArray(version string, obj map[string]any, field string) ([]any, error) {
	raw, present := obj[field]
	if !present {
		return nil, schemaErr(version, field, "is required")
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, schemaErr(version, field, "must be an array")
	}
	if len(arr) == 0 {
		return nil, schemaErr(version, field, "must not be empty")
	}
	return arr, nil
}

func schemaErr(version, field, reason string) error {
	return &common.SchemaError{Version: version, Field: field, Reason: reason}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
