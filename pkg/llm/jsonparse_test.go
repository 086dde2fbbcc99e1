package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parseTarget struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func TestSafeJSONParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    parseTarget
		wantErr bool
	}{
		{
			name:  "strict json",
			input: `{"title":"t","count":2}`,
			want:  parseTarget{Title: "t", Count: 2},
		},
		{
			name:  "fenced json block",
			input: "```json\n{\"title\":\"fenced\",\"count\":1}\n```",
			want:  parseTarget{Title: "fenced", Count: 1},
		},
		{
			name:  "bare fence",
			input: "```\n{\"title\":\"bare\"}\n```",
			want:  parseTarget{Title: "bare"},
		},
		{
			name:  "surrounding prose",
			input: `Sure! Here is the JSON you asked for: {"title":"prose","count":7} Hope that helps.`,
			want:  parseTarget{Title: "prose", Count: 7},
		},
		{
			name:  "braces inside strings",
			input: `preamble {"title":"has } brace","count":3} trailing`,
			want:  parseTarget{Title: "has } brace", Count: 3},
		},
		{
			name:  "escaped quote inside string",
			input: `{"title":"quote \" and } brace","count":4}`,
			want:  parseTarget{Title: `quote " and } brace`, Count: 4},
		},
		{
			name:  "nested objects",
			input: `text {"title":"outer","count":5,"extra":{"a":{"b":1}}} text`,
			want:  parseTarget{Title: "outer", Count: 5},
		},
		{
			name:    "no json at all",
			input:   "this response is not json",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"title":"never closes"`,
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   \n\t  ",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got parseTarget
			err := SafeJSONParse(tc.input, &got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractBalancedObject(t *testing.T) {
	obj, ok := extractBalancedObject(`junk {"a":1} {"b":2}`)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, obj, "first balanced object wins")

	_, ok = extractBalancedObject("no braces here")
	assert.False(t, ok)
}
