package laxjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainObject(t *testing.T) {
	text, err := Extract(`{"isAction": true, "confidence": 0.9}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAction": true, "confidence": 0.9}`, text)
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "json fence",
			raw:  "```json\n{\"isAction\": false}\n```",
		},
		{
			name: "bare fence",
			raw:  "```\n{\"isAction\": false}\n```",
		},
		{
			name: "fence with prose around",
			raw:  "Here is my answer:\n```json\n{\"isAction\": false}\n```\nHope that helps!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.JSONEq(t, `{"isAction": false}`, text)
		})
	}
}

func TestExtractTakesFirstBalancedSpan(t *testing.T) {
	raw := `The classification is {"isAction": true} but one could also argue {"isAction": false}`

	text, err := Extract(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAction": true}`, text)
}

func TestExtractIgnoresBracesInsideStrings(t *testing.T) {
	raw := `{"reasoning": "matches {button} literal", "isAction": true}`

	var out struct {
		Reasoning string `json:"reasoning"`
		IsAction  bool   `json:"isAction"`
	}

	require.NoError(t, Unmarshal(raw, &out))
	assert.Equal(t, "matches {button} literal", out.Reasoning)
	assert.True(t, out.IsAction)
}

func TestRepairRules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "trailing OR null after value",
			raw:  `{"actionType": "click" OR null}`,
			want: `{"actionType": "click"}`,
		},
		{
			name: "bare OR null in value position",
			raw:  `{"actionType": OR null}`,
			want: `{"actionType": null}`,
		},
		{
			name: "python None",
			raw:  `{"targetDescription": None}`,
			want: `{"targetDescription": null}`,
		},
		{
			name: "python booleans",
			raw:  `{"isAction": True, "done": False}`,
			want: `{"isAction": true, "done": false}`,
		},
		{
			name: "uppercase NULL",
			raw:  `{"additionalData": NULL}`,
			want: `{"additionalData": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, text)
		})
	}
}

func TestRepairLeavesQuotedTokensAlone(t *testing.T) {
	raw := `{"additionalData": "none", "reasoning": "null hypothesis"}`

	var out struct {
		AdditionalData string `json:"additionalData"`
		Reasoning      string `json:"reasoning"`
	}

	require.NoError(t, Unmarshal(raw, &out))
	assert.Equal(t, "none", out.AdditionalData)
	assert.Equal(t, "null hypothesis", out.Reasoning)
}

func TestRepairNeverRewritesStringContents(t *testing.T) {
	// Repair tokens occurring inside quoted values must survive verbatim;
	// only the text between string literals is rewritten.
	raw := `{"reasoning": "score: none", "additionalData": "A OR null B", "targetDescription": None}`

	var out struct {
		Reasoning         string  `json:"reasoning"`
		AdditionalData    string  `json:"additionalData"`
		TargetDescription *string `json:"targetDescription"`
	}

	require.NoError(t, Unmarshal(raw, &out))
	assert.Equal(t, "score: none", out.Reasoning)
	assert.Equal(t, "A OR null B", out.AdditionalData)
	assert.Nil(t, out.TargetDescription)
}

func TestRepairHandlesEscapedQuotesInStrings(t *testing.T) {
	raw := `{"reasoning": "said \"click: None\" verbatim", "isAction": True}`

	var out struct {
		Reasoning string `json:"reasoning"`
		IsAction  bool   `json:"isAction"`
	}

	require.NoError(t, Unmarshal(raw, &out))
	assert.Equal(t, `said "click: None" verbatim`, out.Reasoning)
	assert.True(t, out.IsAction)
}

func TestExtractNoObject(t *testing.T) {
	_, err := Extract("I could not classify that utterance, sorry.")
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestUnmarshalParseFailure(t *testing.T) {
	var out map[string]any

	err := Unmarshal(`{"isAction": definitely}`, &out)
	assert.Error(t, err)
}
