package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSStringEscapes(t *testing.T) {
	assert.Equal(t, `"plain"`, jsString("plain"))
	assert.Equal(t, `"it's \"quoted\""`, jsString(`it's "quoted"`))
	assert.Equal(t, `"line\nbreak"`, jsString("line\nbreak"))
}

func TestTypeScriptDispatchesSyntheticEvents(t *testing.T) {
	script := typeScript("#q", "golang", false)

	// Both events must fire so reactive frameworks see the value change.
	assert.Contains(t, script, "new Event('input', {bubbles: true})")
	assert.Contains(t, script, "new Event('change', {bubbles: true})")
	assert.Contains(t, script, `el.value = "golang"`)
}

func TestTypeScriptClearFlag(t *testing.T) {
	cleared := typeScript("#q", "x", true)
	kept := typeScript("#q", "x", false)

	assert.Contains(t, cleared, "if (true) el.value = ''")
	assert.Contains(t, kept, "if (false) el.value = ''")
}

func TestTypeScriptEscapesUserText(t *testing.T) {
	script := typeScript("#q", `"; alert(1); //`, false)

	// The text lands inside a JSON string literal, never as raw JS.
	assert.NotContains(t, script, `el.value = "";`)
	assert.Contains(t, script, `el.value = "\"; alert(1); //"`)
}

func TestHighlightScriptStashesPriorStyles(t *testing.T) {
	script := highlightScript("#b", "Clicking")

	assert.Contains(t, script, "el.dataset.wvaPrevOutline")
	assert.Contains(t, script, "el.dataset.wvaHighlighted === '1'")
	assert.Contains(t, script, `"Clicking"`)
}

func TestClearHighlightScriptIsIdempotent(t *testing.T) {
	script := clearHighlightScript("#b")

	// Missing element or no active highlight still returns success.
	assert.Contains(t, script, "if (!el || el.dataset.wvaHighlighted !== '1') return {success: true}")
	assert.Contains(t, script, "delete el.dataset.wvaHighlighted")
}

func TestScanScriptRecordsButtonType(t *testing.T) {
	script := scanScript()

	// A <button type="submit"> must surface its type, not just
	// input[type=submit]: the confirmation gate keys off it.
	assert.Contains(t, script, `if (tag === 'button') return (el.getAttribute('type') || '').toLowerCase()`)
	assert.Contains(t, script, `if (tag === 'input') return el.type || 'text'`)
}

func TestGuardScriptsCheckAttachment(t *testing.T) {
	for name, script := range map[string]string{
		"type":     typeScript("#x", "t", false),
		"attached": isAttachedScript("#x"),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, strings.Contains(script, "document.contains(el)"))
		})
	}
}
