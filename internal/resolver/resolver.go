package resolver

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
	resolverName   = "ElementResolver"
	resolverTracer = "resolver.resolver"

	// Scoring weights. Tunable constants, not a ranking theory: exact match
	// strongly preferred, then label fields, then fuzzy word overlap.
	kindWeight        = 0.3
	exactTextWeight   = 0.5
	wordOverlapWeight = 0.1
	ariaLabelWeight   = 0.4
	placeholderWeight = 0.3
	searchKindBonus   = 0.4

	// AcceptThreshold is the local-scoring floor: a best score must exceed
	// it, otherwise the result is no match even with a non-nil candidate.
	AcceptThreshold = 0.3

	minWordLength = 3
)

// Resolver maps a free-text target description onto a concrete catalog
// element. Both strategies are stateless; callers re-resolve after any DOM
// mutation invalidates element identity.
type Resolver struct {
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

func NewResolver(params Params) *Resolver {
	return &Resolver{
		model:        params.Model,
		logger:       params.Logger.With(zap.String(logg.Layer, resolverName)),
		tracer:       otel.Tracer(resolverTracer),
		contextLimit: params.Config.AssistantConfig.MatchContextLimit,
	}
}

// FindByDescription is the deterministic, model-free strategy.
func (r *Resolver) FindByDescription(description string, catalog []entity.InteractiveElement) entity.ElementMatch {
	desc := strings.ToLower(description)

	var (
		best      *entity.InteractiveElement
		bestScore float64
	)

	for i := range catalog {
		score := Score(desc, &catalog[i])

		if score > bestScore {
			bestScore = score
			best = &catalog[i]
		}
	}

	if best == nil || bestScore <= AcceptThreshold {
		return entity.ElementMatch{
			Confidence: bestScore,
			Reasoning:  "no element above threshold",
		}
	}

	r.logger.Debug("Resolved locally",
		zap.String(logg.Target, description),
		zap.Float64("score", bestScore),
		zap.String(logg.Selector, best.Selector))

	return entity.ElementMatch{
		Element:    best,
		Confidence: bestScore,
		Reasoning:  "local score",
	}
}

// Score computes the local match score for one element against a lowercase
// description. Capped at 1.0.
func Score(desc string, el *entity.InteractiveElement) float64 {
	score := 0.0

	if strings.Contains(desc, string(el.Kind)) {
		score += kindWeight
	}

	displayLower := strings.ToLower(el.DisplayText)

	if displayLower != "" {
		overlap := 0.0

		for _, word := range strings.Fields(desc) {
			if len(word) >= minWordLength && strings.Contains(displayLower, word) {
				overlap += wordOverlapWeight
			}
		}

		if strings.Contains(desc, displayLower) {
			// The exact-text bonus never pays less than the fuzzy overlap it
			// replaces, so adding the full label cannot lower the score.
			if overlap > exactTextWeight {
				score += overlap
			} else {
				score += exactTextWeight
			}
		} else {
			score += overlap
		}
	}

	if el.AriaLabel != "" && strings.Contains(desc, strings.ToLower(el.AriaLabel)) {
		score += ariaLabelWeight
	}

	if el.Placeholder != "" && strings.Contains(desc, strings.ToLower(el.Placeholder)) {
		score += placeholderWeight
	}

	if el.Kind == entity.ElementKindSearch && strings.Contains(desc, "search") {
		score += searchKindBonus
	}

	if score > 1.0 {
		score = 1.0
	}

	return score
}

// matchPayload mirrors the model's structured-output contract.
type matchPayload struct {
	MatchIndex *int     `json:"matchIndex"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// FindBestMatch is the model-assisted strategy for descriptions the local
// scorer cannot place. Parse or transport failure degrades to no match.
func (r *Resolver) FindBestMatch(ctx context.Context, description string, catalog []entity.InteractiveElement) entity.ElementMatch {
	const op = "FindBestMatch"
	logger := r.logger.With(zap.String(logg.Operation, op), zap.String(logg.Target, description))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.Int("catalog_size", len(catalog)))
	defer step.End(nil)

	if len(catalog) == 0 {
		return entity.ElementMatch{Reasoning: "empty catalog"}
	}

	step.AddEvent("calling model")

	raw, err := r.model.Complete(ctx, r.buildPrompt(description, catalog))
	if err != nil {
		logger.Warn("Model match failed", zap.Error(err))

		return entity.ElementMatch{
			Confidence: 0,
			Reasoning:  truncate(fmt.Sprintf("model error: %v", err), 30),
		}
	}

	step.AddEvent("parsing model output")

	var payload matchPayload

	if perr := laxjson.Unmarshal(raw, &payload); perr != nil || payload.MatchIndex == nil {
		logger.Warn("Unparseable match output", zap.Error(perr))

		return entity.ElementMatch{Confidence: 0, Reasoning: "unparseable match output"}
	}

	idx := *payload.MatchIndex
	if idx < 0 || idx >= len(catalog) {
		return entity.ElementMatch{Confidence: 0, Reasoning: truncate(payload.Reasoning, 30)}
	}

	confidence := 0.0
	if payload.Confidence != nil {
		confidence = clamp01(*payload.Confidence)
	}

	logger.Debug("Resolved via model",
		zap.Int("match_index", idx),
		zap.Float64("confidence", confidence))

	return entity.ElementMatch{
		Element:    &catalog[idx],
		Confidence: confidence,
		Reasoning:  truncate(payload.Reasoning, 30),
	}
}

func (r *Resolver) buildPrompt(description string, catalog []entity.InteractiveElement) string {
	var sb strings.Builder

	sb.WriteString("Pick the page element best matching a description.\n\n")
	sb.WriteString(fmt.Sprintf("Description: %q\n\nElements:\n", description))

	limit := r.contextLimit
	if limit > len(catalog) {
		limit = len(catalog)
	}

	for i := 0; i < limit; i++ {
		el := catalog[i]
		sb.WriteString(fmt.Sprintf("%d. [%s] %s", i, el.Kind, el.DisplayText))

		if el.DOMID != "" {
			sb.WriteString(fmt.Sprintf(" (id: %s)", el.DOMID))
		}

		sb.WriteString("\n")
	}

	sb.WriteString(`
Respond with exactly one JSON object, no prose:
{"matchIndex": zero-based index or -1 if none matches, "confidence": 0.0 to 1.0, "reasoning": "under 30 characters"}`)

	return sb.String()
}

// truncate cuts at a rune boundary so multibyte reasoning never leaves
// invalid UTF-8 behind.
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
