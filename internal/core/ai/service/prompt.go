package service

import (
	"fmt"
	"strings"

	"chefmate/internal/core/recipe"
)

const systemPersona = `Du bist ChefMate, ein professioneller Koch. Erstelle zu jeder Anfrage immer ein Rezept-Objekt mit genau 3 Varianten:
1. student: schnell, günstig, wenig Geräte, leicht erhältliche Zutaten
2. profi: authentische Techniken, spezielle Zutaten, maximaler Geschmack
3. airfryer: optimiert für Heißluftfritteuse oder moderne Küchengeräte

Antworte ausschließlich mit JSON in genau dieser Struktur:
{
  "originalName": "Rezeptname",
  "versions": {
    "student": {"title": "...", "prepTime": "15 min", "ingredients": [{"item": "Zutat", "amount": 100, "unit": "g", "category": "Gemüse"}], "steps": ["Schritt 1"], "tips": "...", "calories": 450},
    "profi": {"title": "...", "prepTime": "45 min", "ingredients": [...], "steps": [...], "tips": "...", "calories": 550},
    "airfryer": {"title": "...", "prepTime": "25 min", "ingredients": [...], "steps": [...], "tips": "...", "calories": 400}
  }
}
"amount" ist immer eine Zahl.`

// videoTask 影片請求的固定任務描述
const videoTask = "Aufgabe: Analysiere dieses Kochvideo (Bild + Ton). Rekonstruiere das Rezept, Zutaten und Schritte. " +
	"Erzeuge 3 Varianten (student/profi/airfryer) und bleibe streng im JSON-Schema."

// SystemInstruction 三版本主廚人設與分類清單
func SystemInstruction() string {
	return systemPersona + "\nKategorien: " + strings.Join(recipe.Categories, ", ") + "."
}

// BuildPrompt 依來源套用使用者指令樣板
func BuildPrompt(source recipe.SourceType, content string) string {
	switch source {
	case recipe.SourcePantry:
		return fmt.Sprintf("Create a recipe using these ingredients: %s", content)
	case recipe.SourceOCR:
		return fmt.Sprintf("This is a menu item or dish photo description: %s. Reverse-engineer the recipe.", content)
	case recipe.SourceSocial:
		return fmt.Sprintf("This is content from social media: %s. Extract and structure the recipe.", content)
	default:
		return fmt.Sprintf("Create a recipe for: %s", content)
	}
}

// textPrompt 純文字請求
func textPrompt(source recipe.SourceType, content string) string {
	return "Anfrage: " + BuildPrompt(source, content)
}

// imagePrompt 圖片請求，沒有提示時描述交給模型自行辨識
func imagePrompt(source recipe.SourceType, hint string) string {
	if hint == "" {
		hint = "siehe Bild"
	}
	return "Aufgabe: " + BuildPrompt(source, hint)
}

// videoPrompt 影片請求，使用者提示附加在固定任務之後
func videoPrompt(hint string) string {
	if hint == "" {
		return videoTask
	}
	return videoTask + "\nHinweis: " + hint
}
