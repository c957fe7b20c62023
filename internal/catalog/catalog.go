package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/ports"
	"web-voice-assistant/pkg/apperr"
	"web-voice-assistant/pkg/logg"
	"web-voice-assistant/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	scannerName   = "ElementCatalog"
	catalogTracer = "catalog.scanner"

	maxDisplayText = 100
)

// Scanner turns the driver's raw detection passes into a deduplicated,
// typed element inventory. Pure read; the result is valid until the next
// DOM mutation and must be rebuilt by re-running Scan.
type Scanner struct {
	driver ports.PageDriver
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Driver ports.PageDriver
	Logger *zap.Logger
}

func NewScanner(params Params) *Scanner {
	return &Scanner{
		driver: params.Driver,
		logger: params.Logger.With(zap.String(logg.Layer, scannerName)),
		tracer: otel.Tracer(catalogTracer),
	}
}

func (s *Scanner) Scan(ctx context.Context) (elements []entity.InteractiveElement, err error) {
	const op = "Scan"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	raw, err := s.driver.ScanInteractive(ctx)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "scan_failed",
			apperr.MetaStage:  apperr.StageScan,
		})
	}

	step.AddEvent("deduplicating elements", attribute.Int("raw_count", len(raw)))

	elements = Dedupe(raw)

	logger.Debug("Catalog built",
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(elements)))
	step.SetAttributes(attribute.Int("catalog_size", len(elements)))

	return elements, nil
}

// Dedupe normalizes raw scan output: drops ghosts the page-side visibility
// predicate should already have excluded, truncates labels, derives unique
// keys and keeps the first occurrence per key. Order (search first) is
// preserved so downstream matching privileges search semantics.
func Dedupe(raw []entity.InteractiveElement) []entity.InteractiveElement {
	out := make([]entity.InteractiveElement, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, el := range raw {
		if el.BoundingBox.Width <= 0 || el.BoundingBox.Height <= 0 {
			continue
		}

		if len(el.DisplayText) > maxDisplayText {
			el.DisplayText = truncate(el.DisplayText, maxDisplayText)
		}

		el.UniqueKey = UniqueKey(el, i)

		if _, dup := seen[el.UniqueKey]; dup {
			continue
		}

		seen[el.UniqueKey] = struct{}{}
		out = append(out, el)
	}

	return out
}

// truncate cuts at a rune boundary so multibyte display text never leaves
// invalid UTF-8 in the catalog.
func truncate(s string, max int) string {
	cut := max

	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

// UniqueKey derives a deterministic identity from kind, dom id, classes and
// display text. The ordinal only participates for anonymous elements (no id,
// classes or text), so two passes finding the same node collapse to one
// entry while indistinguishable blank elements stay distinct.
func UniqueKey(el entity.InteractiveElement, ordinal int) string {
	if el.DOMID == "" && el.CSSClasses == "" && el.DisplayText == "" {
		return fmt.Sprintf("%s||||%d", el.Kind, ordinal)
	}

	return strings.Join([]string{
		string(el.Kind),
		el.DOMID,
		el.CSSClasses,
		el.DisplayText,
	}, "|")
}
