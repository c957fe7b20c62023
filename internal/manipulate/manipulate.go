package manipulate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

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
	manipulatorName   = "PageManipulator"
	manipulateTracer  = "manipulate.manager"
	styleTagPrefix    = "wva-style-"
	baselineStateName = "wvaBaselineStyle"

	textScaleStep = 15
	textScaleMin  = 50
	textScaleMax  = 250
	zoomStep      = 10
	zoomMin       = 50
	zoomMax       = 200
)

// Manager applies and reverses page-level visual changes. Each change is one
// injected style tag keyed by manipulation id, so the whole customization
// state is reversible to the pre-manipulation baseline.
type Manager struct {
	driver    ports.PageDriver
	logger    *zap.Logger
	tracer    trace.Tracer
	active    map[string]entity.Manipulation
	snapshot  bool
	textScale int
	zoom      int
}

type Params struct {
	fx.In

	Driver ports.PageDriver
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		driver:    params.Driver,
		logger:    params.Logger.With(zap.String(logg.Layer, manipulatorName)),
		tracer:    otel.Tracer(manipulateTracer),
		active:    make(map[string]entity.Manipulation),
		textScale: 100,
		zoom:      100,
	}
}

// Apply dispatches a manipulation action. Unknown payload values are errors,
// not silent no-ops.
func (m *Manager) Apply(ctx context.Context, action entity.ActionType, payload string) entity.ActionResult {
	const op = "Apply"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Action, string(action)))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.String("action", string(action)),
		attribute.String("payload", payload))
	defer step.End(nil)

	if action != entity.ActionTypeReset {
		if err := m.ensureBaseline(ctx); err != nil {
			logger.Warn("Baseline snapshot failed", zap.Error(err))
		}
	}

	payload = strings.ToLower(strings.TrimSpace(payload))

	switch action {
	case entity.ActionTypeTextSize:
		return m.applyTextSize(ctx, payload)
	case entity.ActionTypeTheme:
		return m.applyTheme(ctx, payload)
	case entity.ActionTypeColor:
		return m.applyColor(ctx, payload)
	case entity.ActionTypeVisibility:
		return m.applyVisibility(ctx, payload)
	case entity.ActionTypeLayout:
		return m.applyLayout(ctx)
	case entity.ActionTypeFocusMode:
		return m.applyFocusMode(ctx)
	case entity.ActionTypeZoom:
		return m.applyZoom(ctx, payload)
	case entity.ActionTypeReset:
		return m.Reset(ctx)
	default:
		return entity.FailedResult(fmt.Sprintf("Unknown manipulation: %q", action))
	}
}

// Active lists the applied manipulations, oldest first.
func (m *Manager) Active() []entity.Manipulation {
	out := make([]entity.Manipulation, 0, len(m.active))

	for _, man := range m.active {
		out = append(out, man)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].AppliedAt.Before(out[j].AppliedAt)
	})

	return out
}

// Reset removes every injected style tag, restores the baseline root style
// and clears the active set.
func (m *Manager) Reset(ctx context.Context) entity.ActionResult {
	script := fmt.Sprintf(`(() => {
		document.querySelectorAll('style[id^="%s"]').forEach(n => n.remove());
		if (window.%s !== undefined) {
			document.documentElement.style.cssText = window.%s;
			delete window.%s;
		}
		return {success: true};
	})()`, styleTagPrefix, baselineStateName, baselineStateName, baselineStateName)

	if _, err := m.driver.Evaluate(ctx, script); err != nil {
		return entity.FailedResult(fmt.Sprintf("Reset failed: %v", err))
	}

	m.active = make(map[string]entity.Manipulation)
	m.snapshot = false
	m.textScale = 100
	m.zoom = 100

	m.logger.Info("Page customizations reset")

	return entity.OKResult("Restored the original page appearance")
}

// ensureBaseline stashes the root element's inline style once per session so
// reset can restore the exact pre-manipulation state.
func (m *Manager) ensureBaseline(ctx context.Context) error {
	if m.snapshot {
		return nil
	}

	script := fmt.Sprintf(`(() => {
		if (window.%s === undefined) {
			window.%s = document.documentElement.style.cssText;
		}
		return {success: true};
	})()`, baselineStateName, baselineStateName)

	if _, err := m.driver.Evaluate(ctx, script); err != nil {
		return err
	}

	m.snapshot = true

	return nil
}

func (m *Manager) applyTextSize(ctx context.Context, payload string) entity.ActionResult {
	scale := m.textScale

	switch payload {
	case "increase", "larger", "bigger", "":
		scale += textScaleStep
	case "decrease", "smaller":
		scale -= textScaleStep
	default:
		return entity.FailedResult(fmt.Sprintf("Unknown text size change: %q", payload))
	}

	if scale < textScaleMin {
		scale = textScaleMin
	}

	if scale > textScaleMax {
		scale = textScaleMax
	}

	css := fmt.Sprintf("html { font-size: %d%% !important; }", scale)

	if res := m.inject(ctx, "text_size", css); !res.Success {
		return res
	}

	m.textScale = scale
	m.record("text_size", fmt.Sprintf("Text size %d%%", scale))

	return entity.OKResult(fmt.Sprintf("Text size set to %d%%", scale))
}

func (m *Manager) applyTheme(ctx context.Context, payload string) entity.ActionResult {
	switch payload {
	case "dark", "":
		css := `html { filter: invert(1) hue-rotate(180deg); background: #111 !important; }
img, video, picture, canvas, iframe { filter: invert(1) hue-rotate(180deg); }`

		if res := m.inject(ctx, "theme", css); !res.Success {
			return res
		}

		m.record("theme", "Dark mode")

		return entity.OKResult("Dark mode enabled")
	case "light":
		if res := m.remove(ctx, "theme"); !res.Success {
			return res
		}

		return entity.OKResult("Light mode restored")
	default:
		return entity.FailedResult(fmt.Sprintf("Unknown theme: %q", payload))
	}
}

func (m *Manager) applyColor(ctx context.Context, payload string) entity.ActionResult {
	if payload == "" {
		return entity.FailedResult("No color given")
	}

	css := fmt.Sprintf("body { background-color: %s !important; }", payload)

	if res := m.inject(ctx, "color", css); !res.Success {
		return res
	}

	m.record("color", fmt.Sprintf("Background color %s", payload))

	return entity.OKResult(fmt.Sprintf("Background color set to %s", payload))
}

func (m *Manager) applyVisibility(ctx context.Context, payload string) entity.ActionResult {
	// "hide ads" is the one visibility change the assistant supports; the
	// selector list covers the common ad container conventions.
	if payload != "" && payload != "ads" && payload != "hide ads" {
		return entity.FailedResult(fmt.Sprintf("Unknown visibility target: %q", payload))
	}

	css := `[id*="ad-"], [id*="-ad"], [class*="ad-banner"], [class*="advert"],
[class*="sponsored"], iframe[src*="doubleclick"], iframe[src*="adsystem"],
aside[aria-label*="advert" i] { display: none !important; }`

	if res := m.inject(ctx, "visibility", css); !res.Success {
		return res
	}

	m.record("visibility", "Ads hidden")

	return entity.OKResult("Ads hidden")
}

func (m *Manager) applyLayout(ctx context.Context) entity.ActionResult {
	css := `main, article, [role="main"] { max-width: 46rem !important; margin: 0 auto !important; float: none !important; }`

	if res := m.inject(ctx, "layout", css); !res.Success {
		return res
	}

	m.record("layout", "Simplified layout")

	return entity.OKResult("Layout simplified")
}

func (m *Manager) applyFocusMode(ctx context.Context) entity.ActionResult {
	css := `body > *:not(main):not(article):not([role="main"]) { opacity: 0.25 !important; }
main, article, [role="main"] { opacity: 1 !important; }`

	if res := m.inject(ctx, "focus", css); !res.Success {
		return res
	}

	m.record("focus", "Reading focus")

	return entity.OKResult("Focus mode enabled")
}

func (m *Manager) applyZoom(ctx context.Context, payload string) entity.ActionResult {
	zoom := m.zoom

	switch payload {
	case "in", "increase", "":
		zoom += zoomStep
	case "out", "decrease":
		zoom -= zoomStep
	default:
		return entity.FailedResult(fmt.Sprintf("Unknown zoom change: %q", payload))
	}

	if zoom < zoomMin {
		zoom = zoomMin
	}

	if zoom > zoomMax {
		zoom = zoomMax
	}

	css := fmt.Sprintf("body { zoom: %d%% !important; }", zoom)

	if res := m.inject(ctx, "zoom", css); !res.Success {
		return res
	}

	m.zoom = zoom
	m.record("zoom", fmt.Sprintf("Zoom %d%%", zoom))

	return entity.OKResult(fmt.Sprintf("Zoom set to %d%%", zoom))
}

// inject upserts the style tag for one manipulation id.
func (m *Manager) inject(ctx context.Context, id, css string) entity.ActionResult {
	script := fmt.Sprintf(`(() => {
		const id = %q;
		let tag = document.getElementById(id);
		if (!tag) {
			tag = document.createElement('style');
			tag.id = id;
			document.head.appendChild(tag);
		}
		tag.textContent = %q;
		return {success: true};
	})()`, styleTagPrefix+id, css)

	if _, err := m.driver.Evaluate(ctx, script); err != nil {
		m.logger.Warn("Manipulation failed", zap.String("manipulation", id), zap.Error(err))

		return entity.FailedResult(fmt.Sprintf("Could not apply %s: %v", id, err))
	}

	return entity.OKResult("applied")
}

func (m *Manager) remove(ctx context.Context, id string) entity.ActionResult {
	script := fmt.Sprintf(`(() => {
		const tag = document.getElementById(%q);
		if (tag) tag.remove();
		return {success: true};
	})()`, styleTagPrefix+id)

	if _, err := m.driver.Evaluate(ctx, script); err != nil {
		return entity.FailedResult(fmt.Sprintf("Could not remove %s: %v", id, err))
	}

	delete(m.active, id)

	return entity.OKResult("removed")
}

func (m *Manager) record(id, description string) {
	m.active[id] = entity.Manipulation{
		ID:          id,
		Description: description,
		AppliedAt:   time.Now(),
	}
}
