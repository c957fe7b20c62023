package browser

import (
	"encoding/json"
	"fmt"
)

// jsString renders a Go string as a safe JS string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)

	return string(b)
}

// typeScript sets the element's value and fires synthetic input and change
// events. Direct value assignment alone is invisible to virtual-DOM
// frameworks, so the event dispatch must not be skipped.
func typeScript(selector, text string, clear bool) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {success: false, error: 'element not found'};
		if (!document.contains(el)) return {success: false, error: 'element is no longer in document'};
		el.focus();
		if (%t) el.value = '';
		el.value = %s;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return {success: true};
	})()`, jsString(selector), clear, jsString(text))
}

func focusScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {success: false, error: 'element not found'};
		el.focus();
		return {success: true};
	})()`, jsString(selector))
}

func scrollIntoViewScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {success: false, error: 'element not found'};
		el.scrollIntoView({behavior: 'instant', block: 'center'});
		return {success: true};
	})()`, jsString(selector))
}

func isAttachedScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return {success: true, attached: !!(el && document.contains(el))};
	})()`, jsString(selector))
}

// highlightScript outlines the element and attaches a floating label naming
// the pending action. Prior outline/outline-offset/z-index values are stashed
// on the element's dataset so removal can restore them exactly.
func highlightScript(selector, label string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {success: false, error: 'element not found'};
		if (el.dataset.wvaHighlighted === '1') return {success: true};
		el.dataset.wvaPrevOutline = el.style.outline || '';
		el.dataset.wvaPrevOutlineOffset = el.style.outlineOffset || '';
		el.dataset.wvaPrevZIndex = el.style.zIndex || '';
		el.dataset.wvaHighlighted = '1';
		el.style.outline = '3px solid #4f86f7';
		el.style.outlineOffset = '2px';
		el.style.zIndex = '2147483646';
		const rect = el.getBoundingClientRect();
		const tag = document.createElement('div');
		tag.className = 'wva-action-label';
		tag.textContent = %s;
		tag.style.cssText = 'position:fixed;left:' + rect.left + 'px;top:' + Math.max(0, rect.top - 28) + 'px;' +
			'background:#4f86f7;color:#fff;padding:2px 8px;border-radius:4px;font:12px sans-serif;z-index:2147483647;pointer-events:none;';
		document.body.appendChild(tag);
		return {success: true};
	})()`, jsString(selector), jsString(label))
}

// clearHighlightScript is idempotent: safe when no highlight is active, and
// restores the stashed style values rather than hardcoded defaults.
func clearHighlightScript(selector string) string {
	return fmt.Sprintf(`(() => {
		document.querySelectorAll('.wva-action-label').forEach(n => n.remove());
		const el = document.querySelector(%s);
		if (!el || el.dataset.wvaHighlighted !== '1') return {success: true};
		el.style.outline = el.dataset.wvaPrevOutline;
		el.style.outlineOffset = el.dataset.wvaPrevOutlineOffset;
		el.style.zIndex = el.dataset.wvaPrevZIndex;
		delete el.dataset.wvaPrevOutline;
		delete el.dataset.wvaPrevOutlineOffset;
		delete el.dataset.wvaPrevZIndex;
		delete el.dataset.wvaHighlighted;
		return {success: true};
	})()`, jsString(selector))
}

func summaryScript() string {
	return `(() => {
		const text = (document.body && document.body.innerText) || '';
		return {
			url: window.location.href,
			title: document.title,
			excerpt: text.replace(/\s+/g, ' ').trim().substring(0, 1500)
		};
	})()`
}
