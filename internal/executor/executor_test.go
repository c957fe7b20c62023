package executor

import (
	"context"
	"errors"
	"testing"

	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/ports/portstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		AssistantConfig: &config.AssistantConfig{
			ScrollAmount: 400,
			// Zero settle delay keeps the approach sequence instant; the
			// highlight removal timer is pushed out so it never fires
			// mid-assertion.
			SettleDelayMs: 0,
			HighlightMs:   60_000,
		},
	}
}

func newExecutor(driver *portstest.FakeDriver) *Executor {
	return NewExecutor(Params{Driver: driver, Config: testConfig(), Logger: zap.NewNop()})
}

func button(selector, text string) *entity.InteractiveElement {
	return &entity.InteractiveElement{
		Kind:        entity.ElementKindButton,
		DisplayText: text,
		Selector:    selector,
	}
}

func TestValidateRejectsUnknownAction(t *testing.T) {
	exec := newExecutor(&portstest.FakeDriver{})

	verdict := exec.Validate(context.Background(), entity.ActionType("drag"), button("#b", "B"))

	assert.False(t, verdict.Success)
	assert.Contains(t, verdict.Message, "not allowed")
}

func TestValidateScrollNeedsNoElement(t *testing.T) {
	exec := newExecutor(&portstest.FakeDriver{})

	verdict := exec.Validate(context.Background(), entity.ActionTypeScroll, nil)

	assert.True(t, verdict.Success)
	assert.False(t, verdict.NeedsConfirmation)
}

func TestValidateNilElement(t *testing.T) {
	exec := newExecutor(&portstest.FakeDriver{})

	verdict := exec.Validate(context.Background(), entity.ActionTypeClick, nil)

	assert.False(t, verdict.Success)
	assert.Equal(t, "Element not found", verdict.Message)
}

func TestValidateDetachedElement(t *testing.T) {
	driver := &portstest.FakeDriver{
		AttachedFn: func(selector string) (bool, error) { return false, nil },
	}
	exec := newExecutor(driver)

	verdict := exec.Validate(context.Background(), entity.ActionTypeClick, button("#gone", "Gone"))

	assert.False(t, verdict.Success)
	assert.Equal(t, "Element is no longer in document", verdict.Message)
}

func TestValidateBlocksFileInput(t *testing.T) {
	exec := newExecutor(&portstest.FakeDriver{})
	el := &entity.InteractiveElement{Kind: entity.ElementKindInput, InputType: "file", Selector: "#upload"}

	// File inputs stay blocked even with confirmation; there is no
	// opts-based escape hatch in Validate.
	verdict := exec.Validate(context.Background(), entity.ActionTypeClick, el)

	assert.False(t, verdict.Success)
	assert.False(t, verdict.NeedsConfirmation)
	assert.Contains(t, verdict.Message, "File inputs")
}

func TestValidatePasswordNeedsConfirmation(t *testing.T) {
	exec := newExecutor(&portstest.FakeDriver{})
	el := &entity.InteractiveElement{Kind: entity.ElementKindInput, InputType: "password", Selector: "#pw"}

	verdict := exec.Validate(context.Background(), entity.ActionTypeType, el)

	assert.True(t, verdict.Success)
	assert.True(t, verdict.NeedsConfirmation)
}

func TestValidateSubmitButtonNeedsConfirmation(t *testing.T) {
	exec := newExecutor(&portstest.FakeDriver{})
	el := &entity.InteractiveElement{Kind: entity.ElementKindButton, InputType: "submit", Selector: "#go"}

	verdict := exec.Validate(context.Background(), entity.ActionTypeClick, el)

	assert.True(t, verdict.Success)
	assert.True(t, verdict.NeedsConfirmation)
}

func TestSubmitButtonElementRequiresConfirmation(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)
	// Exactly what the scan emits for <button type="submit">Post</button>.
	el := &entity.InteractiveElement{
		Kind:        entity.ElementKindButton,
		DisplayText: "Post",
		InputType:   "submit",
		Selector:    "#submit",
	}

	result := exec.Click(context.Background(), el, Options{})

	assert.True(t, result.NeedsConfirmation)
	assert.NotContains(t, driver.Calls, "click:#submit")
}

func TestPlainButtonNeedsNoConfirmation(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)
	// <button type="button"> carries its explicit type but is not a submit.
	el := &entity.InteractiveElement{
		Kind:        entity.ElementKindButton,
		DisplayText: "Toggle menu",
		InputType:   "button",
		Selector:    "#menu",
	}

	result := exec.Click(context.Background(), el, Options{})

	assert.True(t, result.Success)
	assert.False(t, result.NeedsConfirmation)
	assert.Contains(t, driver.Calls, "click:#menu")
}

func TestClickHappyPath(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)

	result := exec.Click(context.Background(), button("#signin", "Sign in"), Options{})

	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Sign in")
	assert.Contains(t, driver.Calls, "scrollIntoView:#signin")
	assert.Contains(t, driver.Calls, "click:#signin")
}

func TestClickStopsOnConfirmationVerdict(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)
	el := &entity.InteractiveElement{Kind: entity.ElementKindButton, InputType: "submit", Selector: "#submit"}

	result := exec.Click(context.Background(), el, Options{})

	assert.True(t, result.NeedsConfirmation)
	assert.NotContains(t, driver.Calls, "click:#submit")
}

func TestClickConfirmedProceeds(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)
	el := &entity.InteractiveElement{Kind: entity.ElementKindButton, InputType: "submit", Selector: "#submit"}

	result := exec.Click(context.Background(), el, Options{Confirmed: true})

	assert.True(t, result.Success)
	assert.False(t, result.NeedsConfirmation)
	assert.Contains(t, driver.Calls, "click:#submit")
}

func TestClickDriverFailure(t *testing.T) {
	driver := &portstest.FakeDriver{FailOps: map[string]error{"click": errors.New("element obscured")}}
	exec := newExecutor(driver)

	result := exec.Click(context.Background(), button("#b", "B"), Options{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "element obscured")
}

func TestClickHighlights(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)

	exec.Click(context.Background(), button("#b", "B"), Options{Highlight: true})

	assert.Contains(t, driver.Calls, "highlight:#b:Clicking")
}

func TestTypeRecordsClearFlag(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)
	el := &entity.InteractiveElement{Kind: entity.ElementKindInput, Placeholder: "Search", Selector: "#q"}

	result := exec.Type(context.Background(), el, "golang", true, Options{})

	require.True(t, result.Success)
	require.Len(t, driver.TypeCalls, 1)
	assert.Equal(t, portstest.TypeCall{Selector: "#q", Text: "golang", Clear: true}, driver.TypeCalls[0])
	assert.Contains(t, result.Message, "Search")
}

func TestFocusHappyPath(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)
	el := &entity.InteractiveElement{Kind: entity.ElementKindInput, AriaLabel: "Comment", Selector: "#c"}

	result := exec.Focus(context.Background(), el, Options{})

	assert.True(t, result.Success)
	assert.Contains(t, driver.Calls, "focus:#c")
}

func TestScrollDirections(t *testing.T) {
	tests := []struct {
		direction string
		wantCall  string
	}{
		{"down", "scrollBy:0,400"},
		{"up", "scrollBy:0,-400"},
		{"left", "scrollBy:-400,0"},
		{"right", "scrollBy:400,0"},
		{"top", "scrollToEdge:top"},
		{"bottom", "scrollToEdge:bottom"},
	}

	for _, tt := range tests {
		t.Run(tt.direction, func(t *testing.T) {
			driver := &portstest.FakeDriver{}
			exec := newExecutor(driver)

			result := exec.Scroll(context.Background(), tt.direction, 0)

			assert.True(t, result.Success)
			assert.Contains(t, driver.Calls, tt.wantCall)
		})
	}
}

func TestScrollExplicitAmount(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)

	exec.Scroll(context.Background(), "down", 900)

	assert.Contains(t, driver.Calls, "scrollBy:0,900")
}

func TestScrollUnknownDirection(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)

	result := exec.Scroll(context.Background(), "sideways", 0)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Unknown scroll direction")
	assert.Empty(t, driver.Calls)
}

func TestNavigateVerbs(t *testing.T) {
	for _, verb := range []string{"back", "forward", "refresh"} {
		t.Run(verb, func(t *testing.T) {
			driver := &portstest.FakeDriver{}
			exec := newExecutor(driver)

			result := exec.Navigate(context.Background(), verb)

			assert.True(t, result.Success)
			assert.Contains(t, driver.Calls, "history:"+verb)
		})
	}
}

func TestNavigateUnknownVerb(t *testing.T) {
	driver := &portstest.FakeDriver{}
	exec := newExecutor(driver)

	result := exec.Navigate(context.Background(), "home")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Unknown navigation action")
	assert.Empty(t, driver.Calls)
}
