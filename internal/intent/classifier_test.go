package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/ports/portstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClassifier(model *portstest.FakeModel) *Classifier {
	cfg := &config.Config{AssistantConfig: &config.AssistantConfig{CatalogContextLimit: 20}}

	return NewClassifier(Params{Model: model, Config: cfg, Logger: zap.NewNop()})
}

func TestClassifyWellFormedAction(t *testing.T) {
	model := &portstest.FakeModel{Response: `{
		"isAction": true,
		"confidence": 0.92,
		"actionType": "click",
		"targetDescription": "login button",
		"additionalData": null,
		"reasoning": "explicit click request"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "click on the login button", nil)

	require.NotNil(t, intent)
	assert.True(t, intent.IsAction)
	assert.Equal(t, entity.ActionTypeClick, intent.ActionType)
	assert.Equal(t, "login button", intent.TargetDescription)
	assert.InDelta(t, 0.92, intent.Confidence, 1e-9)
}

func TestClassifyQuestion(t *testing.T) {
	model := &portstest.FakeModel{Response: `{
		"isAction": false,
		"confidence": 0.9,
		"actionType": null,
		"targetDescription": null,
		"additionalData": null,
		"reasoning": "asking about content"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "which post has the most views", nil)

	assert.False(t, intent.IsAction)
	assert.Empty(t, intent.ActionType)
}

func TestClassifyRepairsContradiction(t *testing.T) {
	// actionType filled but isAction false: the repair wins without a
	// second model round trip.
	model := &portstest.FakeModel{Response: `{
		"isAction": false,
		"confidence": 0.4,
		"actionType": "scroll",
		"additionalData": "down",
		"reasoning": "unsure"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "scroll down", nil)

	assert.True(t, intent.IsAction)
	assert.Equal(t, entity.ActionTypeScroll, intent.ActionType)
	assert.GreaterOrEqual(t, intent.Confidence, 0.8)
	assert.Equal(t, "repaired: actionType implies action", intent.Reasoning)
}

func TestClassifyRepairKeepsHigherConfidence(t *testing.T) {
	model := &portstest.FakeModel{Response: `{
		"isAction": false,
		"confidence": 0.95,
		"actionType": "click",
		"reasoning": "odd"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "press it", nil)

	assert.True(t, intent.IsAction)
	assert.InDelta(t, 0.95, intent.Confidence, 1e-9)
}

func TestClassifyActionKeywordOverride(t *testing.T) {
	// Model leans question, no actionType, but the utterance carries an
	// action keyword and no information keyword.
	model := &portstest.FakeModel{Response: `{
		"isAction": false,
		"confidence": 0.5,
		"actionType": null,
		"reasoning": "ambiguous"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "go back please", nil)

	assert.True(t, intent.IsAction)
	assert.GreaterOrEqual(t, intent.Confidence, 0.7)
	assert.Equal(t, "heuristic override: action keyword", intent.Reasoning)
}

func TestClassifyInformationKeywordBlocksOverride(t *testing.T) {
	model := &portstest.FakeModel{Response: `{
		"isAction": false,
		"confidence": 0.6,
		"actionType": null,
		"reasoning": "question"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "tell me which button to click on", nil)

	assert.False(t, intent.IsAction)
}

func TestClassifyOverrideNeverDemotesAction(t *testing.T) {
	// The override stage only runs when the model said question; an
	// information keyword must not flip an affirmative action.
	model := &portstest.FakeModel{Response: `{
		"isAction": true,
		"confidence": 0.85,
		"actionType": "click",
		"targetDescription": "what's new link",
		"reasoning": "click request"
	}`}

	intent := newClassifier(model).Classify(context.Background(), "click on what's new", nil)

	assert.True(t, intent.IsAction)
	assert.Equal(t, entity.ActionTypeClick, intent.ActionType)
}

func TestClassifyParseFailureFallback(t *testing.T) {
	model := &portstest.FakeModel{Response: "I think the user wants to scroll, probably."}

	intent := newClassifier(model).Classify(context.Background(), "scroll to the bottom", nil)

	assert.True(t, intent.IsAction)
	assert.InDelta(t, 0.3, intent.Confidence, 1e-9)
	assert.Equal(t, "fallback: action keyword", intent.Reasoning)
}

func TestClassifyParseFailureFallbackQuestion(t *testing.T) {
	model := &portstest.FakeModel{Response: "not json at all"}

	intent := newClassifier(model).Classify(context.Background(), "what is on this page", nil)

	assert.False(t, intent.IsAction)
	assert.InDelta(t, 0.3, intent.Confidence, 1e-9)
}

func TestClassifyMissingIsActionIsParseFailure(t *testing.T) {
	// Valid JSON without the required isAction key routes to the keyword
	// fallback, not to a silent question classification.
	model := &portstest.FakeModel{Response: `{"confidence": 0.9, "actionType": "click"}`}

	intent := newClassifier(model).Classify(context.Background(), "click on submit", nil)

	assert.True(t, intent.IsAction)
	assert.InDelta(t, 0.3, intent.Confidence, 1e-9)
}

func TestClassifyModelFailure(t *testing.T) {
	model := &portstest.FakeModel{Err: errors.New("connection refused")}

	intent := newClassifier(model).Classify(context.Background(), "scroll down", nil)

	assert.False(t, intent.IsAction)
	assert.Zero(t, intent.Confidence)
	assert.Contains(t, intent.Reasoning, "model error")
}

func TestClassifyLenientParsing(t *testing.T) {
	model := &portstest.FakeModel{Response: "```json\n" + `{
		"isAction": true,
		"confidence": 0.8,
		"actionType": "type",
		"targetDescription": "search box",
		"additionalData": "golang" OR null,
		"reasoning": "typing request"
	}` + "\n```"}

	intent := newClassifier(model).Classify(context.Background(), "type golang in search", nil)

	assert.True(t, intent.IsAction)
	assert.Equal(t, entity.ActionType("type"), intent.ActionType)
	assert.Equal(t, "golang", intent.Payload)
}

func TestClassifyClampsConfidence(t *testing.T) {
	model := &portstest.FakeModel{Response: `{"isAction": true, "confidence": 1.7, "actionType": "click", "reasoning": "x"}`}

	intent := newClassifier(model).Classify(context.Background(), "click it", nil)

	assert.Equal(t, 1.0, intent.Confidence)
}

func TestClassifyTruncatesReasoning(t *testing.T) {
	long := "this reasoning field keeps going for far longer than fifty characters allow"
	model := &portstest.FakeModel{Response: `{"isAction": false, "confidence": 0.5, "reasoning": "` + long + `"}`}

	intent := newClassifier(model).Classify(context.Background(), "hm", nil)

	assert.LessOrEqual(t, len(intent.Reasoning), 50)
}

func TestClassifyTruncatesReasoningOnRuneBoundary(t *testing.T) {
	// 3-byte runes straddle the 50-byte limit; the cut must not leave a
	// partial rune behind.
	long := strings.Repeat("音", 30)
	model := &portstest.FakeModel{Response: `{"isAction": false, "confidence": 0.5, "reasoning": "` + long + `"}`}

	intent := newClassifier(model).Classify(context.Background(), "hm", nil)

	assert.True(t, utf8.ValidString(intent.Reasoning))
	assert.LessOrEqual(t, len(intent.Reasoning), 50)
	assert.Equal(t, strings.Repeat("音", 16), intent.Reasoning)
}

func TestClassifyPromptIncludesCatalog(t *testing.T) {
	model := &portstest.FakeModel{Response: `{"isAction": false, "confidence": 0.5, "reasoning": "q"}`}
	catalog := []entity.InteractiveElement{
		{Kind: entity.ElementKindButton, DisplayText: "Sign in", Selector: "#signin"},
		{Kind: entity.ElementKindSearch, DisplayText: "Search", Selector: "#q"},
	}

	newClassifier(model).Classify(context.Background(), "what can I do here", catalog)

	require.Len(t, model.Prompts, 1)
	assert.Contains(t, model.Prompts[0], "Sign in")
	assert.Contains(t, model.Prompts[0], "what can I do here")
}
