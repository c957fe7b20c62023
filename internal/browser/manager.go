package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/pkg/apperr"
	"web-voice-assistant/pkg/logg"
	"web-voice-assistant/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	pageDriverName = "PageDriver"
	browserTracer  = "browser.driver"
	clickTimeout   = 15000
)

// Manager drives the live page through playwright. It implements
// ports.PageDriver and is the only component that touches the DOM.
type Manager struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, pageDriverName)),
		tracer: otel.Tracer(browserTracer),
		ready:  false,
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching browser...")
	step.AddEvent("installing playwright")

	err = playwright.Install()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_install_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.playwright = pw

	if m.config.BrowserConfig.UserDataDir != "" {
		err = m.launchPersistent(ctx)
	} else {
		err = m.launchNew(ctx)
	}

	if err != nil {
		return err
	}

	if startURL := m.config.BrowserConfig.StartURL; startURL != "" {
		step.AddEvent("opening start URL")

		if _, err := m.page.Goto(startURL, playwright.PageGotoOptions{
			Timeout:   playwright.Float(float64(m.config.BrowserConfig.Timeout)),
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			logger.Warn("Failed to open start URL", zap.String(logg.URL, startURL), zap.Error(err))
		}
	}

	return nil
}

func (m *Manager) launchPersistent(ctx context.Context) (err error) {
	const op = "launchPersistent"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching persistent browser context")

	userDataDir := m.config.BrowserConfig.UserDataDir

	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	options := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:            playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Viewport:          &playwright.Size{Width: 1920, Height: 1080},
		AcceptDownloads:   playwright.Bool(true),
		JavaScriptEnabled: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--window-size=1920,1080",
		},
	}

	browserContext, err := m.playwright.Chromium.LaunchPersistentContext(userDataDir, options)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "launch_persistent_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.browserContext = browserContext

	pages := browserContext.Pages()

	if len(pages) > 0 {
		m.page = pages[0]
		logger.Info("Using existing page")
	} else {
		page, err := browserContext.NewPage()
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "new_page_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
		m.page = page
		logger.Info("Created new page")
	}

	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) launchNew(ctx context.Context) (err error) {
	const op = "launchNew"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching new browser")

	browserOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
		},
	}

	browser, err := m.playwright.Chromium.Launch(browserOptions)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browser = browser

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		AcceptDownloads:   playwright.Bool(true),
		JavaScriptEnabled: playwright.Bool(true),
	}

	browserContext, err := browser.NewContext(contextOptions)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.browserContext = browserContext

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.page = page

	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Closing connection to browser...")

	if m.config.BrowserConfig.UserDataDir != "" {
		logger.Info("Persistent browser - keeping it open")
		m.ready = false

		return nil
	}

	if m.browserContext != nil {
		if err := m.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
		}
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
	}

	m.ready = false
	logger.Info("Browser closed")

	return nil
}

func (m *Manager) IsReady() bool {
	return m.ready
}

func (m *Manager) ensurePageActive(ctx context.Context) error {
	if m.browserContext == nil {
		return fmt.Errorf("browser context is nil")
	}

	if m.page != nil && !m.page.IsClosed() {
		return nil
	}

	m.logger.Info("Page closed, reconnecting to active page...")

	for _, p := range m.browserContext.Pages() {
		if !p.IsClosed() {
			m.page = p

			return nil
		}
	}

	page, err := m.browserContext.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create new page: %w", err)
	}

	m.page = page

	return nil
}

func (m *Manager) guard(ctx context.Context, op string) error {
	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	return nil
}

// ScanInteractive evaluates the scan script and decodes its raw output. The
// returned slice preserves pass order; the catalog layer owns dedup and key
// derivation.
func (m *Manager) ScanInteractive(ctx context.Context) (elements []entity.InteractiveElement, err error) {
	const op = "ScanInteractive"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return nil, err
	}

	m.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(5000),
	})

	result, err := m.page.Evaluate(scanScript())
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
			apperr.MetaStage:  apperr.StageScan,
		})
	}

	rawList, ok := result.([]interface{})
	if !ok {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInternal, "unexpected_result_type")
	}

	elements = make([]entity.InteractiveElement, 0, len(rawList))

	for _, item := range rawList {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		elements = append(elements, entity.InteractiveElement{
			Kind:            entity.ElementKind(getString(raw, "kind")),
			DisplayText:     getString(raw, "displayText"),
			InputType:       getString(raw, "inputType"),
			Placeholder:     getString(raw, "placeholder"),
			AriaLabel:       getString(raw, "ariaLabel"),
			AssociatedLabel: getString(raw, "associatedLabel"),
			DOMID:           getString(raw, "domId"),
			CSSClasses:      getString(raw, "cssClasses"),
			Selector:        getString(raw, "selector"),
			BoundingBox: entity.BoundingBox{
				Top:     getFloat(raw, "top"),
				Left:    getFloat(raw, "left"),
				Bottom:  getFloat(raw, "bottom"),
				Right:   getFloat(raw, "right"),
				Width:   getFloat(raw, "width"),
				Height:  getFloat(raw, "height"),
				CenterX: getFloat(raw, "centerX"),
				CenterY: getFloat(raw, "centerY"),
			},
		})
	}

	logger.Debug("Scan completed", zap.Int("elements", len(elements)))

	return elements, nil
}

func (m *Manager) ScrollIntoView(ctx context.Context, selector string) (err error) {
	const op = "ScrollIntoView"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	return m.runScript(op, scrollIntoViewScript(selector), selector)
}

func (m *Manager) Click(ctx context.Context, selector string) (err error) {
	const op = "Click"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	step.AddEvent("clicking element")

	err = m.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(clickTimeout),
	})
	if err == nil {
		return nil
	}

	logger.Warn("Standard click failed, trying direct JS click", zap.Error(err))
	step.AddEvent("falling back to JS click")

	if jsErr := m.runScript(op, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {success: false, error: 'element not found'};
		el.click();
		return {success: true};
	})()`, jsString(selector)), selector); jsErr != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, jsErr, map[string]any{
			apperr.MetaReason:   "click_failed",
			apperr.MetaStage:    apperr.StageExecution,
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func (m *Manager) TypeText(ctx context.Context, selector, text string, clear bool) (err error) {
	const op = "TypeText"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	step.AddEvent("typing into element")

	return m.runScript(op, typeScript(selector, text, clear), selector)
}

func (m *Manager) Focus(ctx context.Context, selector string) (err error) {
	const op = "Focus"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	return m.runScript(op, focusScript(selector), selector)
}

func (m *Manager) ScrollBy(ctx context.Context, dx, dy int) (err error) {
	const op = "ScrollBy"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.Int("dx", dx), attribute.Int("dy", dy))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	_, err = m.page.Evaluate(fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy))
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "scroll_failed",
			apperr.MetaStage:  apperr.StageExecution,
		})
	}

	return nil
}

func (m *Manager) ScrollToEdge(ctx context.Context, edge string) (err error) {
	const op = "ScrollToEdge"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Direction, edge))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("edge", edge))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	var script string

	switch edge {
	case "top":
		script = "window.scrollTo(0, 0)"
	case "bottom":
		script = "window.scrollTo(0, document.body.scrollHeight)"
	default:
		return apperr.InvalidReqError(op, "edge", fmt.Errorf("unknown edge: %s", edge))
	}

	_, err = m.page.Evaluate(script)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "scroll_failed",
			apperr.MetaStage:  apperr.StageExecution,
		})
	}

	return nil
}

func (m *Manager) History(ctx context.Context, verb string) (err error) {
	const op = "History"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Action, verb))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("verb", verb))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	switch verb {
	case "back":
		_, err = m.page.GoBack()
	case "forward":
		_, err = m.page.GoForward()
	case "refresh":
		_, err = m.page.Reload()
	default:
		return apperr.InvalidReqError(op, "verb", fmt.Errorf("unknown navigation verb: %s", verb))
	}

	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "history_failed",
			apperr.MetaStage:  apperr.StageExecution,
			apperr.MetaAction: verb,
		})
	}

	time.Sleep(500 * time.Millisecond)

	return nil
}

func (m *Manager) IsAttached(ctx context.Context, selector string) (attached bool, err error) {
	const op = "IsAttached"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return false, err
	}

	result, err := m.page.Evaluate(isAttachedScript(selector))
	if err != nil {
		return false, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	if resultMap, ok := result.(map[string]interface{}); ok {
		return getBool(resultMap, "attached"), nil
	}

	return false, nil
}

func (m *Manager) Highlight(ctx context.Context, selector, label string) (err error) {
	const op = "Highlight"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	return m.runScript(op, highlightScript(selector, label), selector)
}

func (m *Manager) ClearHighlight(ctx context.Context, selector string) (err error) {
	const op = "ClearHighlight"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return err
	}

	return m.runScript(op, clearHighlightScript(selector), selector)
}

func (m *Manager) Evaluate(ctx context.Context, script string) (result any, err error) {
	const op = "Evaluate"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return nil, err
	}

	result, err = m.page.Evaluate(script)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	return result, nil
}

func (m *Manager) Summary(ctx context.Context) (summary *entity.PageSummary, err error) {
	const op = "Summary"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := m.guard(ctx, op); err != nil {
		return nil, err
	}

	result, err := m.page.Evaluate(summaryScript())
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInternal, "unexpected_result_type")
	}

	return &entity.PageSummary{
		URL:     getString(resultMap, "url"),
		Title:   getString(resultMap, "title"),
		Excerpt: getString(resultMap, "excerpt"),
	}, nil
}

// runScript evaluates a script that follows the {success, error} result
// convention and converts a reported failure into an error.
func (m *Manager) runScript(op, script, selector string) error {
	result, err := m.page.Evaluate(script)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "evaluate_failed",
			apperr.MetaSelector: selector,
		})
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return nil
	}

	if success, ok := resultMap["success"].(bool); ok && !success {
		msg := getString(resultMap, "error")

		return apperr.Wrap(op, apperr.CodeActionFailed, fmt.Errorf("%s", msg), map[string]any{
			apperr.MetaReason:   msg,
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}

	return false
}

func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}

	if v, ok := m[key].(int); ok {
		return float64(v)
	}

	return 0
}
