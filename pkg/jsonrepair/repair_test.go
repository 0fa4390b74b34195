package jsonrepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.raw))
		})
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"prose around object", `Here you go: {"a":1} hope that helps`, `{"a":1}`},
		{"truncated object", `{"a":1,"b":`, `{"a":1,"b":`},
		{"no object", `just words`, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractObject(tt.raw))
		})
	}
}

func TestBalanceBraces(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already balanced", `{"a":1}`, `{"a":1}`},
		{"missing close brace", `{"a":1`, `{"a":1}`},
		{"missing bracket and brace", `{"a":[1,2`, `{"a":[1,2]}`},
		{"brace inside string ignored", `{"a":"}{"`, `{"a":"}{"}`},
		{"unterminated string closed", `{"a":"text`, `{"a":"text"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BalanceBraces(tt.raw))
		})
	}
}

func TestUnmarshal(t *testing.T) {
	type payload struct {
		Query string   `json:"query"`
		Skus  []string `json:"skus"`
	}

	t.Run("valid json fast path", func(t *testing.T) {
		var p payload
		require.NoError(t, Unmarshal(`{"query":"q","skus":["a"]}`, &p))
		assert.Equal(t, "q", p.Query)
	})

	t.Run("fenced and truncated", func(t *testing.T) {
		var p payload
		require.NoError(t, Unmarshal("```json\n{\"query\":\"tv under 1000\",\"skus\":[\"88231\"", &p))
		assert.Equal(t, "tv under 1000", p.Query)
		assert.Equal(t, []string{"88231"}, p.Skus)
	})

	t.Run("prose wrapped", func(t *testing.T) {
		var p payload
		require.NoError(t, Unmarshal(`Sure! {"query":"laptops"} Anything else?`, &p))
		assert.Equal(t, "laptops", p.Query)
	})

	t.Run("no object at all", func(t *testing.T) {
		var p payload
		err := Unmarshal("I cannot answer that.", &p)
		require.ErrorIs(t, err, ErrNoObject)
	})
}
