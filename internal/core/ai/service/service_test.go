package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chefmate/internal/core/ai/provider"
	"chefmate/internal/core/recipe"
	"chefmate/internal/pkg/common"
)

const validResponse = "```json\n" + `{
  "originalName": "Pizza Margherita",
  "versions": {
    "student":  {"title": "Toast-Pizza", "prepTime": "10 min", "ingredients": [{"item": "Toast", "amount": 2, "unit": "Scheiben", "category": "Backwaren"}], "steps": ["Belegen", "Backen"], "tips": "Ofen vorheizen"},
    "profi":    {"title": "Neapolitana", "prepTime": "24 h", "ingredients": [{"item": "Mehl Tipo 00", "amount": 500, "unit": "g", "category": "Vorrat"}], "steps": ["Teig"], "tips": "Lange Gare"},
    "airfryer": {"title": "Airfryer-Pizza", "prepTime": "20 min", "ingredients": [{"item": "Mozzarella", "amount": 125, "unit": "g"}], "steps": ["Frittieren"], "tips": "200 Grad"}
  }
}` + "\n```"

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*provider.Response)
	return resp, args.Error(1)
}
func (m *mockProvider) Name() string     { return "mock" }
func (m *mockProvider) GetModel() string { return "mock-1" }
func (m *mockProvider) Close() error     { return nil }

type memoryCache struct {
	data map[string]string
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *memoryCache) Set(_ context.Context, key, value string) { c.data[key] = value }
func (c *memoryCache) Close() error                           { return nil }

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "Create a recipe using these ingredients: Eier, Milch", BuildPrompt(recipe.SourcePantry, "Eier, Milch"))
	assert.Equal(t, "This is a menu item or dish photo description: Schnitzel. Reverse-engineer the recipe.", BuildPrompt(recipe.SourceOCR, "Schnitzel"))
	assert.Equal(t, "This is content from social media: clip. Extract and structure the recipe.", BuildPrompt(recipe.SourceSocial, "clip"))
	assert.Equal(t, "Create a recipe for: Lasagne", BuildPrompt(recipe.SourceText, "Lasagne"))
}

func TestSystemInstructionListsCategories(t *testing.T) {
	sys := SystemInstruction()
	assert.Contains(t, sys, "student")
	assert.Contains(t, sys, "airfryer")
	for _, c := range recipe.Categories {
		assert.Contains(t, sys, c)
	}
}

func TestBuildRequest(t *testing.T) {
	req, source, err := BuildRequest(Input{Text: "  Lasagne "})
	require.NoError(t, err)
	assert.Equal(t, recipe.SourceText, source)
	assert.Equal(t, "Anfrage: Create a recipe for: Lasagne", req.Prompt)
	assert.Nil(t, req.Media)

	req, source, err = BuildRequest(Input{Source: recipe.SourcePantry, Ingredients: []string{"Eier", " ", "Milch"}})
	require.NoError(t, err)
	assert.Equal(t, recipe.SourcePantry, source)
	assert.Equal(t, "Anfrage: Create a recipe using these ingredients: Eier, Milch", req.Prompt)

	req, source, err = BuildRequest(Input{Image: []byte{1}, ImageMIME: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, recipe.SourceOCR, source)
	assert.Equal(t, "image", req.Modality())
	assert.True(t, strings.HasPrefix(req.Prompt, "Aufgabe: "))

	req, source, err = BuildRequest(Input{Text: "vegan", Video: &Video{Path: "/tmp/v.mp4", MIMEType: "video/mp4"}})
	require.NoError(t, err)
	assert.Equal(t, recipe.SourceSocial, source)
	assert.Equal(t, "video", req.Modality())
	assert.Contains(t, req.Prompt, "Kochvideo")
	assert.Contains(t, req.Prompt, "Hinweis: vegan")
}

func TestBuildRequestValidation(t *testing.T) {
	cases := []Input{
		{Text: " "},
		{Source: recipe.SourcePantry, Ingredients: []string{" "}},
		{Source: recipe.SourceOCR, Text: "Schnitzel"},
		{Source: "fax", Text: "x"},
		{Video: &Video{}},
	}
	for _, in := range cases {
		_, _, err := BuildRequest(in)
		assert.True(t, common.IsValidationError(err), "%+v", in)
	}
}

func TestGenerateRecipe(t *testing.T) {
	p := &mockProvider{}
	p.On("Generate", mock.Anything, mock.MatchedBy(func(r *provider.Request) bool {
		return r.Prompt == "Anfrage: Create a recipe for: Pizza" && r.SystemInstruction == SystemInstruction()
	})).Return(&provider.Response{Content: validResponse}, nil).Once()

	rec, err := NewService(Static{P: p}, nil).GenerateRecipe(context.Background(), Input{Text: "Pizza"})
	require.NoError(t, err)

	assert.Equal(t, "Pizza Margherita", rec.OriginalName)
	assert.Equal(t, recipe.SourceText, rec.SourceType)
	assert.NotEmpty(t, rec.ID)
	assert.Empty(t, rec.Versions.Airfryer.Ingredients[0].Category)
	p.AssertExpectations(t)
}

func TestGenerateRecipePropagatesUpstreamError(t *testing.T) {
	p := &mockProvider{}
	upstream := &common.UpstreamError{Provider: "mock", Err: errors.New("401")}
	p.On("Generate", mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := NewService(Static{P: p}, nil).GenerateRecipe(context.Background(), Input{Text: "Pizza"})
	assert.Same(t, upstream, err)
	p.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateRecipeInvalidResponses(t *testing.T) {
	p := &mockProvider{}
	p.On("Generate", mock.Anything, mock.Anything).Return(&provider.Response{Content: "Leider kann ich das nicht."}, nil).Once()
	p.On("Generate", mock.Anything, mock.Anything).Return(&provider.Response{Content: `{"originalName":"X","versions":{}}`}, nil).Once()
	svc := NewService(Static{P: p}, nil)

	_, err := svc.GenerateRecipe(context.Background(), Input{Text: "Pizza"})
	var parseErr *common.ParseError
	assert.True(t, errors.As(err, &parseErr), "got %v", err)

	_, err = svc.GenerateRecipe(context.Background(), Input{Text: "Pizza"})
	var schemaErr *common.SchemaError
	assert.True(t, errors.As(err, &schemaErr), "got %v", err)
}

func TestGenerateRecipeUsesCache(t *testing.T) {
	p := &mockProvider{}
	p.On("Generate", mock.Anything, mock.Anything).Return(&provider.Response{Content: validResponse}, nil).Once()
	svc := NewService(Static{P: p}, &memoryCache{data: map[string]string{}})
	ctx := context.Background()

	first, err := svc.GenerateRecipe(ctx, Input{Text: "Pizza"})
	require.NoError(t, err)
	second, err := svc.GenerateRecipe(ctx, Input{Text: "Pizza"})
	require.NoError(t, err)

	assert.Equal(t, first.OriginalName, second.OriginalName)
	assert.NotEqual(t, first.ID, second.ID)
	p.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateRecipeDoesNotCacheInvalidResponses(t *testing.T) {
	p := &mockProvider{}
	p.On("Generate", mock.Anything, mock.Anything).Return(&provider.Response{Content: "kein JSON"}, nil).Twice()
	c := &memoryCache{data: map[string]string{}}
	svc := NewService(Static{P: p}, c)

	for i := 0; i < 2; i++ {
		_, err := svc.GenerateRecipe(context.Background(), Input{Text: "Pizza"})
		assert.Error(t, err)
	}
	assert.Empty(t, c.data)
	p.AssertNumberOfCalls(t, "Generate", 2)
}
