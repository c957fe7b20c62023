package intent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/ports"
	"web-voice-assistant/pkg/laxjson"
	"web-voice-assistant/pkg/logg"
	"web-voice-assistant/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	classifierName   = "IntentClassifier"
	classifierTracer = "intent.classifier"

	// Confidence floors for the deterministic stages.
	repairConfidence   = 0.8
	overrideConfidence = 0.7
	fallbackConfidence = 0.3
)

// Classifier decides INFORMATION vs ACTION for one utterance. The model's
// answer passes through a strict stage order: parse/repair, consistency
// repair, heuristic override, and two degradation paths (parse failure,
// model failure). Classify never returns an error; failures lean toward the
// non-destructive question branch.
type Classifier struct {
	model        ports.TextModel
	logger       *zap.Logger
	tracer       trace.Tracer
	contextLimit int
}

type Params struct {
	fx.In

	Model  ports.TextModel
	Config *config.Config
	Logger *zap.Logger
}

func NewClassifier(params Params) *Classifier {
	return &Classifier{
		model:        params.Model,
		logger:       params.Logger.With(zap.String(logg.Layer, classifierName)),
		tracer:       otel.Tracer(classifierTracer),
		contextLimit: params.Config.AssistantConfig.CatalogContextLimit,
	}
}

// intentPayload mirrors the JSON contract the model is asked to follow.
// IsAction is a pointer: a missing or non-boolean value is a parse failure,
// not a question classification.
type intentPayload struct {
	IsAction          *bool    `json:"isAction"`
	Confidence        *float64 `json:"confidence"`
	ActionType        *string  `json:"actionType"`
	TargetDescription *string  `json:"targetDescription"`
	AdditionalData    *string  `json:"additionalData"`
	Reasoning         string   `json:"reasoning"`
}

func (c *Classifier) Classify(ctx context.Context, utterance string, catalog []entity.InteractiveElement) *entity.Intent {
	const op = "Classify"
	logger := c.logger.With(zap.String(logg.Operation, op), zap.String(logg.Utterance, utterance))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op,
		attribute.Int("catalog_size", len(catalog)))
	defer step.End(nil)

	step.AddEvent("calling model")

	raw, err := c.model.Complete(ctx, c.buildPrompt(utterance, catalog))
	if err != nil {
		// Stage 6: collaborator failure. Fail safe toward the question
		// branch rather than risking an unintended page mutation.
		logger.Warn("Model call failed, classifying as question", zap.Error(err))
		step.AddEvent("model failure")

		return &entity.Intent{
			IsAction:   false,
			Confidence: 0,
			Reasoning:  truncate(fmt.Sprintf("model error: %v", err), 50),
		}
	}

	step.AddEvent("parsing model output")

	var payload intentPayload

	if perr := laxjson.Unmarshal(raw, &payload); perr != nil || payload.IsAction == nil {
		// Stage 5: parse failure. Keyword scan the raw utterance; the low
		// confidence tells routing to treat this as a weak signal.
		logger.Warn("Unparseable model output, using keyword fallback", zap.Error(perr))
		step.AddEvent("fallback heuristic")

		return c.fallback(utterance)
	}

	decided := c.fromPayload(&payload)

	decided = c.repairConsistency(decided, logger, step)

	if !decided.IsAction {
		decided = c.applyOverride(decided, utterance, logger, step)
	}

	logger.Debug("Classified",
		zap.Bool("is_action", decided.IsAction),
		zap.Float64("confidence", decided.Confidence),
		zap.String(logg.Action, string(decided.ActionType)))

	return decided
}

func (c *Classifier) fromPayload(p *intentPayload) *entity.Intent {
	intent := &entity.Intent{
		IsAction:  *p.IsAction,
		Reasoning: truncate(p.Reasoning, 50),
	}

	if p.Confidence != nil {
		intent.Confidence = clamp01(*p.Confidence)
	}

	if p.ActionType != nil && *p.ActionType != "" {
		intent.ActionType = entity.ActionType(*p.ActionType)
	}

	if p.TargetDescription != nil {
		intent.TargetDescription = *p.TargetDescription
	}

	if p.AdditionalData != nil {
		intent.Payload = *p.AdditionalData
	}

	return intent
}

// repairConsistency enforces the hard invariant actionType != "" implies
// isAction without a second model call.
func (c *Classifier) repairConsistency(intent *entity.Intent, logger *zap.Logger, step *tracing.Span) *entity.Intent {
	if intent.ActionType == "" || intent.IsAction {
		return intent
	}

	logger.Debug("Repairing self-contradictory classification",
		zap.String(logg.Action, string(intent.ActionType)))
	step.AddEvent("consistency repair")

	intent.IsAction = true

	if intent.Confidence < repairConfidence {
		intent.Confidence = repairConfidence
	}

	intent.Reasoning = "repaired: actionType implies action"

	return intent
}

// applyOverride runs only when the model said question. Information keywords
// win unconditionally; otherwise an action keyword flips the decision.
func (c *Classifier) applyOverride(intent *entity.Intent, utterance string, logger *zap.Logger, step *tracing.Span) *entity.Intent {
	if IsInformationRequest(utterance) {
		return intent
	}

	if !HasActionKeyword(utterance) {
		return intent
	}

	logger.Debug("Overriding question classification via action keyword")
	step.AddEvent("heuristic override")

	intent.IsAction = true

	if intent.Confidence < overrideConfidence {
		intent.Confidence = overrideConfidence
	}

	intent.Reasoning = "heuristic override: action keyword"

	return intent
}

func (c *Classifier) fallback(utterance string) *entity.Intent {
	isAction := IsLikelyAction(utterance)

	reasoning := "fallback: no action keyword"
	if isAction {
		reasoning = "fallback: action keyword"
	}

	return &entity.Intent{
		IsAction:   isAction,
		Confidence: fallbackConfidence,
		Reasoning:  reasoning,
	}
}

func (c *Classifier) buildPrompt(utterance string, catalog []entity.InteractiveElement) string {
	var sb strings.Builder

	sb.WriteString("You are the intent classifier of a voice assistant embedded in a web page.\n")
	sb.WriteString("Decide whether the user is asking for INFORMATION or requesting an ACTION on the page.\n\n")
	sb.WriteString(fmt.Sprintf("User said: %q\n\n", utterance))

	if len(catalog) > 0 {
		sb.WriteString("Interactive elements currently on the page:\n")

		limit := c.contextLimit
		if limit > len(catalog) {
			limit = len(catalog)
		}

		for i := 0; i < limit; i++ {
			el := catalog[i]
			sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, el.Kind, el.DisplayText))
		}

		sb.WriteString("\n")
	}

	sb.WriteString(`Respond with exactly one JSON object, no prose:
{
  "isAction": true or false,
  "confidence": 0.0 to 1.0,
  "actionType": one of "click","scroll","navigate","type","focus","modify_text_size","modify_theme","modify_color","modify_visibility","modify_layout","modify_focus","modify_zoom","modify_reset", or null,
  "targetDescription": description of the element to act on, or null,
  "additionalData": text to type, scroll direction, navigation verb, color value, or null,
  "reasoning": short justification, under 50 characters
}

Examples:
"Type Krishna in Go to file" -> {"isAction": true, "actionType": "type", "targetDescription": "Go to file", "additionalData": "Krishna", ...}
"Make text larger" -> {"isAction": true, "actionType": "modify_text_size", "additionalData": "increase", ...}
"scroll to the bottom" -> {"isAction": true, "actionType": "scroll", "additionalData": "bottom", ...}
"what is this page about" -> {"isAction": false, "actionType": null, ...}`)

	return sb.String()
}

// truncate cuts at a rune boundary so multibyte text never leaves invalid
// UTF-8 in prompts or logs.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
