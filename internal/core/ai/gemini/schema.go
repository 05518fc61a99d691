package gemini

import "github.com/google/generative-ai-go/genai"

// recipeSchema 與食譜 JSON 結構一致的回應 schema
func recipeSchema() *genai.Schema {
	ingredient := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"item":     {Type: genai.TypeString},
			"amount":   {Type: genai.TypeNumber},
			"unit":     {Type: genai.TypeString},
			"category": {Type: genai.TypeString},
		},
		Required: []string{"item", "amount", "unit"},
	}

	version := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"prepTime":    {Type: genai.TypeString},
			"ingredients": {Type: genai.TypeArray, Items: ingredient},
			"steps":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"tips":        {Type: genai.TypeString},
			"calories":    {Type: genai.TypeNumber},
		},
		Required: []string{"title", "prepTime", "ingredients", "steps", "tips"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"originalName": {Type: genai.TypeString},
			"versions": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"student":  version,
					"profi":    version,
					"airfryer": version,
				},
				Required: []string{"student", "profi", "airfryer"},
			},
		},
		Required: []string{"originalName", "versions"},
	}
}

// safetySettings 食譜內容常提到刀具與火，危險內容只擋高風險
func safetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
	}
}
