package executor

import (
	"context"
	"fmt"
	"time"

	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/ports"
	"web-voice-assistant/pkg/logg"
	"web-voice-assistant/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	executorName   = "ActionExecutor"
	executorTracer = "executor.executor"
)

// Options control one action invocation. Confirmed acknowledges a
// NeedsConfirmation verdict from a prior Validate call.
type Options struct {
	Highlight bool
	Confirmed bool
}

// Executor performs the concrete DOM effect for a resolved action. Every
// operation validates first, returns a structured result instead of
// panicking or throwing past the boundary, and never retries: a second
// attempt needs a fresh scan/classify/resolve cycle because the catalog may
// be stale.
type Executor struct {
	driver ports.PageDriver
	logger *zap.Logger
	tracer trace.Tracer
	cfg    *config.AssistantConfig
}

type Params struct {
	fx.In

	Driver ports.PageDriver
	Config *config.Config
	Logger *zap.Logger
}

func NewExecutor(params Params) *Executor {
	return &Executor{
		driver: params.Driver,
		logger: params.Logger.With(zap.String(logg.Layer, executorName)),
		tracer: otel.Tracer(executorTracer),
		cfg:    params.Config.AssistantConfig,
	}
}

// Validate is the mandatory safety gate. Whitelisted action types only;
// element actions require a still-attached target; file inputs are blocked
// unconditionally; password inputs and submit buttons pass but demand
// explicit user confirmation.
func (e *Executor) Validate(ctx context.Context, action entity.ActionType, el *entity.InteractiveElement) entity.ActionResult {
	const op = "Validate"
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.Action, string(action)))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.String("action", string(action)))
	defer step.End(nil)

	switch action {
	case entity.ActionTypeClick, entity.ActionTypeScroll, entity.ActionTypeFocus, entity.ActionTypeType:
	default:
		return entity.FailedResult(fmt.Sprintf("Action %q is not allowed", action))
	}

	if action == entity.ActionTypeScroll {
		return entity.OKResult("Action allowed")
	}

	if el == nil {
		return entity.FailedResult("Element not found")
	}

	attached, err := e.driver.IsAttached(ctx, el.Selector)
	if err != nil {
		return entity.FailedResult(fmt.Sprintf("Could not verify element: %v", err))
	}

	if !attached {
		return entity.FailedResult("Element is no longer in document")
	}

	if el.InputType == "file" {
		return entity.FailedResult("File inputs cannot be automated")
	}

	if el.InputType == "password" || (el.Kind == entity.ElementKindButton && el.InputType == "submit") {
		return entity.ActionResult{
			Success:           true,
			Message:           "Sensitive target, confirmation required",
			NeedsConfirmation: true,
		}
	}

	return entity.OKResult("Action allowed")
}

func (e *Executor) Click(ctx context.Context, el *entity.InteractiveElement, opts Options) entity.ActionResult {
	const op = "Click"
	logger := e.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer step.End(nil)

	if verdict := e.gate(ctx, entity.ActionTypeClick, el, opts); !verdict.Success || verdict.NeedsConfirmation {
		return verdict
	}

	logger = logger.With(zap.String(logg.Selector, el.Selector))

	e.approach(ctx, el, "Clicking", opts, step)

	step.AddEvent("clicking")

	if err := e.driver.Click(ctx, el.Selector); err != nil {
		logger.Warn("Click failed", zap.Error(err))

		return entity.FailedResult(fmt.Sprintf("Click failed: %v", err))
	}

	return entity.OKResult(fmt.Sprintf("Clicked %q", el.DisplayText))
}

func (e *Executor) Scroll(ctx context.Context, direction string, amount int) entity.ActionResult {
	const op = "Scroll"
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.Direction, direction))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.String("direction", direction))
	defer step.End(nil)

	if amount <= 0 {
		amount = e.cfg.ScrollAmount
	}

	var err error

	switch direction {
	case "up":
		err = e.driver.ScrollBy(ctx, 0, -amount)
	case "down":
		err = e.driver.ScrollBy(ctx, 0, amount)
	case "left":
		err = e.driver.ScrollBy(ctx, -amount, 0)
	case "right":
		err = e.driver.ScrollBy(ctx, amount, 0)
	case "top", "bottom":
		err = e.driver.ScrollToEdge(ctx, direction)
	default:
		// An unknown direction is an error, not a silent no-op.
		return entity.FailedResult(fmt.Sprintf("Unknown scroll direction: %q", direction))
	}

	if err != nil {
		logger.Warn("Scroll failed", zap.Error(err))

		return entity.FailedResult(fmt.Sprintf("Scroll failed: %v", err))
	}

	return entity.OKResult(fmt.Sprintf("Scrolled %s", direction))
}

func (e *Executor) Navigate(ctx context.Context, verb string) entity.ActionResult {
	const op = "Navigate"
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.Action, verb))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.String("verb", verb))
	defer step.End(nil)

	switch verb {
	case "back", "forward", "refresh":
	default:
		return entity.FailedResult(fmt.Sprintf("Unknown navigation action: %q", verb))
	}

	if err := e.driver.History(ctx, verb); err != nil {
		logger.Warn("Navigation failed", zap.Error(err))

		return entity.FailedResult(fmt.Sprintf("Navigation failed: %v", err))
	}

	return entity.OKResult(fmt.Sprintf("Navigated %s", verb))
}

// Type focuses the element, optionally clears it, sets the value and fires
// synthetic input and change events via the driver so reactive frontend
// frameworks observe the mutation.
func (e *Executor) Type(ctx context.Context, el *entity.InteractiveElement, text string, clear bool, opts Options) entity.ActionResult {
	const op = "Type"
	logger := e.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer step.End(nil)

	if verdict := e.gate(ctx, entity.ActionTypeType, el, opts); !verdict.Success || verdict.NeedsConfirmation {
		return verdict
	}

	logger = logger.With(zap.String(logg.Selector, el.Selector))

	e.approach(ctx, el, "Typing", opts, step)

	step.AddEvent("typing")

	if err := e.driver.TypeText(ctx, el.Selector, text, clear); err != nil {
		logger.Warn("Type failed", zap.Error(err))

		return entity.FailedResult(fmt.Sprintf("Type failed: %v", err))
	}

	return entity.OKResult(fmt.Sprintf("Typed into %q", e.targetLabel(el)))
}

func (e *Executor) Focus(ctx context.Context, el *entity.InteractiveElement, opts Options) entity.ActionResult {
	const op = "Focus"
	logger := e.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer step.End(nil)

	if verdict := e.gate(ctx, entity.ActionTypeFocus, el, opts); !verdict.Success || verdict.NeedsConfirmation {
		return verdict
	}

	logger = logger.With(zap.String(logg.Selector, el.Selector))

	e.approach(ctx, el, "Focusing", opts, step)

	step.AddEvent("focusing")

	if err := e.driver.Focus(ctx, el.Selector); err != nil {
		logger.Warn("Focus failed", zap.Error(err))

		return entity.FailedResult(fmt.Sprintf("Focus failed: %v", err))
	}

	return entity.OKResult(fmt.Sprintf("Focused %q", e.targetLabel(el)))
}

// gate runs Validate and suppresses the NeedsConfirmation verdict when the
// caller has already confirmed.
func (e *Executor) gate(ctx context.Context, action entity.ActionType, el *entity.InteractiveElement, opts Options) entity.ActionResult {
	verdict := e.Validate(ctx, action, el)

	if verdict.NeedsConfirmation && opts.Confirmed {
		verdict.NeedsConfirmation = false
	}

	return verdict
}

// approach is the shared pre-apply sequence: optional highlight with
// scheduled idempotent removal, scroll into center view, settle delay.
func (e *Executor) approach(ctx context.Context, el *entity.InteractiveElement, label string, opts Options, step *tracing.Span) {
	if opts.Highlight {
		step.AddEvent("highlighting")

		if err := e.driver.Highlight(ctx, el.Selector, label); err != nil {
			e.logger.Debug("Highlight failed", zap.Error(err))
		} else {
			selector := el.Selector
			time.AfterFunc(time.Duration(e.cfg.HighlightMs)*time.Millisecond, func() {
				// Removal is idempotent and restores the stashed styles.
				if err := e.driver.ClearHighlight(context.Background(), selector); err != nil {
					e.logger.Debug("Clear highlight failed", zap.Error(err))
				}
			})
		}
	}

	step.AddEvent("scrolling into view")

	if err := e.driver.ScrollIntoView(ctx, el.Selector); err != nil {
		e.logger.Debug("Scroll into view failed", zap.Error(err))
	}

	time.Sleep(time.Duration(e.cfg.SettleDelayMs) * time.Millisecond)
}

func (e *Executor) targetLabel(el *entity.InteractiveElement) string {
	switch {
	case el.DisplayText != "":
		return el.DisplayText
	case el.Placeholder != "":
		return el.Placeholder
	case el.AriaLabel != "":
		return el.AriaLabel
	default:
		return el.Selector
	}
}
