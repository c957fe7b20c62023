package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInformationRequest(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"what is this page about", true},
		{"Which post has the most views", true},
		{"tell me about the author", true},
		{"summarize this article", true},
		{"show me the comments", true},
		{"click on the login button", false},
		{"scroll down", false},
		{"dark mode please", false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInformationRequest(tt.utterance))
		})
	}
}

func TestHasActionKeyword(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"click on the login button", true},
		{"scroll to the bottom", true},
		{"go back", true},
		{"make text bigger", true},
		{"can you hide the sidebar", true},
		{"zoom in a bit", true},
		{"the weather is nice", false},
		{"who wrote this", false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, HasActionKeyword(tt.utterance))
		})
	}
}

// Information keywords always beat action keywords: mis-firing an action is
// worse than leaving a question unanswered.
func TestInformationPrecedence(t *testing.T) {
	tests := []string{
		"tell me which button to click on",
		"can you tell me which post has the most views",
		"what happens if I press on submit",
		"explain how to scroll here",
	}

	for _, utterance := range tests {
		t.Run(utterance, func(t *testing.T) {
			assert.False(t, IsLikelyAction(utterance))
		})
	}
}

func TestIsLikelyAction(t *testing.T) {
	assert.True(t, IsLikelyAction("scroll down"))
	assert.True(t, IsLikelyAction("click on sign in"))
	assert.False(t, IsLikelyAction("nice page"))
	assert.False(t, IsLikelyAction("which one is the newest"))
}
