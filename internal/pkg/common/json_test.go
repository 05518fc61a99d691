package common

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"fenced with tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"upper case tag", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}  ", `{"a":1}`},
		{"prose around", "Sure! {\"a\":1} Enjoy.", `{"a":1}`},
		{"prose around fence", "Here you go:\n```json\n{\"a\":{\"b\":2}}\n```\nBon appetit", `{"a":{"b":2}}`},
		{"no braces", "  no json here  ", "no json here"},
		{"only opening brace", "{ broken", "{ broken"},
		{"reversed braces", "} oops {", "} oops {"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONObjectParsesToSameValue(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\":1}\n```",
		"  {\"a\":1}  ",
		"Sure! {\"a\":1} Enjoy.",
	}
	for _, in := range inputs {
		var got map[string]int
		require.NoError(t, json.Unmarshal([]byte(ExtractJSONObject(in)), &got), in)
		assert.Equal(t, map[string]int{"a": 1}, got)
	}
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]any
	assert.NoError(t, ParseJSON(`{"a":1}`, &v))
	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))

	assert.NoError(t, ParseJSONBytes([]byte(`{"a":1}`), &v))
	assert.Equal(t, json.Number("1"), v["a"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var strict struct {
		A int `json:"a"`
	}
	assert.NoError(t, DecodeJSON(strings.NewReader(`{"a":1}`), &strict))
	assert.Equal(t, 1, strict.A)
	assert.Error(t, DecodeJSON(strings.NewReader(`{"a":1,"b":2}`), &strict))
}
