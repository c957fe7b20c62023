// Package portstest provides in-memory PageDriver and TextModel fakes for
// component tests. The driver records every operation so tests can assert on
// the exact sequence of DOM effects without a live browser.
package portstest

import (
	"context"
	"fmt"
	"sync"

	"web-voice-assistant/internal/entity"
)

type TypeCall struct {
	Selector string
	Text     string
	Clear    bool
}

// FakeDriver implements ports.PageDriver. Zero value is a ready driver with
// an empty page; override the Fn fields to shape behavior.
type FakeDriver struct {
	mu sync.Mutex

	NotReady bool

	ScanFn     func(ctx context.Context) ([]entity.InteractiveElement, error)
	AttachedFn func(selector string) (bool, error)
	EvalFn     func(script string) (any, error)
	SummaryFn  func() (*entity.PageSummary, error)
	FailOps    map[string]error

	Calls     []string
	Scripts   []string
	TypeCalls []TypeCall
}

func (d *FakeDriver) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, call)
}

func (d *FakeDriver) fail(op string) error {
	if d.FailOps == nil {
		return nil
	}

	return d.FailOps[op]
}

func (d *FakeDriver) Launch(ctx context.Context) error { d.record("launch"); return nil }
func (d *FakeDriver) Close(ctx context.Context) error  { d.record("close"); return nil }
func (d *FakeDriver) IsReady() bool                    { return !d.NotReady }

func (d *FakeDriver) ScanInteractive(ctx context.Context) ([]entity.InteractiveElement, error) {
	d.record("scan")

	if d.ScanFn != nil {
		return d.ScanFn(ctx)
	}

	return nil, nil
}

func (d *FakeDriver) ScrollIntoView(ctx context.Context, selector string) error {
	d.record("scrollIntoView:" + selector)

	return d.fail("scrollIntoView")
}

func (d *FakeDriver) Click(ctx context.Context, selector string) error {
	d.record("click:" + selector)

	return d.fail("click")
}

func (d *FakeDriver) TypeText(ctx context.Context, selector, text string, clear bool) error {
	d.record("type:" + selector)
	d.mu.Lock()
	d.TypeCalls = append(d.TypeCalls, TypeCall{Selector: selector, Text: text, Clear: clear})
	d.mu.Unlock()

	return d.fail("type")
}

func (d *FakeDriver) Focus(ctx context.Context, selector string) error {
	d.record("focus:" + selector)

	return d.fail("focus")
}

func (d *FakeDriver) ScrollBy(ctx context.Context, dx, dy int) error {
	d.record(fmt.Sprintf("scrollBy:%d,%d", dx, dy))

	return d.fail("scrollBy")
}

func (d *FakeDriver) ScrollToEdge(ctx context.Context, edge string) error {
	d.record("scrollToEdge:" + edge)

	return d.fail("scrollToEdge")
}

func (d *FakeDriver) History(ctx context.Context, verb string) error {
	d.record("history:" + verb)

	return d.fail("history")
}

func (d *FakeDriver) IsAttached(ctx context.Context, selector string) (bool, error) {
	d.record("isAttached:" + selector)

	if d.AttachedFn != nil {
		return d.AttachedFn(selector)
	}

	return true, nil
}

func (d *FakeDriver) Highlight(ctx context.Context, selector, label string) error {
	d.record("highlight:" + selector + ":" + label)

	return d.fail("highlight")
}

func (d *FakeDriver) ClearHighlight(ctx context.Context, selector string) error {
	d.record("clearHighlight:" + selector)

	return d.fail("clearHighlight")
}

func (d *FakeDriver) Evaluate(ctx context.Context, script string) (any, error) {
	d.record("evaluate")
	d.mu.Lock()
	d.Scripts = append(d.Scripts, script)
	d.mu.Unlock()

	if d.EvalFn != nil {
		return d.EvalFn(script)
	}

	return map[string]interface{}{"success": true}, nil
}

func (d *FakeDriver) Summary(ctx context.Context) (*entity.PageSummary, error) {
	d.record("summary")

	if d.SummaryFn != nil {
		return d.SummaryFn()
	}

	return &entity.PageSummary{URL: "https://example.test/", Title: "Example"}, nil
}

// FakeModel implements ports.TextModel with a canned response per prompt.
type FakeModel struct {
	mu sync.Mutex

	Response string
	Err      error
	// ResponseFn, when set, wins over Response and can vary by prompt.
	ResponseFn func(prompt string) (string, error)

	Prompts []string
}

func (m *FakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.ResponseFn != nil {
		return m.ResponseFn(prompt)
	}

	if m.Err != nil {
		return "", m.Err
	}

	return m.Response, nil
}
