package browser

// scanScript runs the four detection passes in the page, in fixed priority
// order: search inputs, buttons, links, remaining text inputs. A node claimed
// by an earlier pass is skipped by later ones. Invisible elements (zero
// dimensions, display:none, visibility:hidden, opacity 0) are never emitted.
func scanScript() string {
	return `(() => {
		try {
			const result = [];
			const claimed = new Set();

			const isVisible = (el) => {
				const rect = el.getBoundingClientRect();
				if (rect.width <= 0 || rect.height <= 0) return false;
				const style = window.getComputedStyle(el);
				return style.display !== 'none' &&
					style.visibility !== 'hidden' &&
					parseFloat(style.opacity) > 0;
			};

			const displayText = (el) => {
				const candidates = [
					(el.textContent || '').trim(),
					el.getAttribute('aria-label') || '',
					el.getAttribute('title') || '',
					el.getAttribute('alt') || '',
					el.value || ''
				];
				for (const c of candidates) {
					if (c && c.trim()) return c.trim().substring(0, 100);
				}
				return '';
			};

			const associatedLabel = (el) => {
				if (el.id) {
					const label = document.querySelector('label[for="' + el.id + '"]');
					if (label) return (label.textContent || '').trim();
				}
				const parent = el.closest('label');
				if (parent) return (parent.textContent || '').trim();
				return '';
			};

			const buildSelector = (el) => {
				const tag = el.tagName.toLowerCase();
				if (el.id && /^[a-zA-Z]/.test(el.id) && !el.id.includes(' ')) {
					return '#' + el.id;
				}
				if (el.name && ['input', 'textarea', 'button', 'select'].includes(tag)) {
					return tag + '[name="' + el.name + '"]';
				}
				const ariaLabel = el.getAttribute('aria-label');
				if (ariaLabel && ariaLabel.length < 80) {
					return tag + '[aria-label="' + ariaLabel + '"]';
				}
				if (tag === 'input' && el.type && el.placeholder) {
					return 'input[type="' + el.type + '"][placeholder="' + el.placeholder + '"]';
				}
				if (el.className && typeof el.className === 'string') {
					const classes = el.className.split(' ')
						.filter(c => c && !c.match(/^[0-9]/) && c.length < 40)
						.slice(0, 2);
					if (classes.length > 0) return tag + '.' + classes.join('.');
				}
				let path = [];
				let current = el;
				let depth = 0;
				while (current && current.tagName && depth < 4) {
					const t = current.tagName.toLowerCase();
					if (current.id) {
						path.unshift('#' + current.id);
						break;
					}
					const parent = current.parentElement;
					if (!parent) {
						path.unshift(t);
						break;
					}
					const siblings = Array.from(parent.children).filter(s => s.tagName === current.tagName);
					if (siblings.length > 1) {
						path.unshift(t + ':nth-of-type(' + (siblings.indexOf(current) + 1) + ')');
					} else {
						path.unshift(t);
					}
					current = parent;
					depth++;
				}
				return path.join(' > ');
			};

			const inputType = (el) => {
				const tag = el.tagName.toLowerCase();
				if (tag === 'input') return el.type || 'text';
				if (tag === 'button') return (el.getAttribute('type') || '').toLowerCase();
				return '';
			};

			const emit = (el, kind) => {
				if (claimed.has(el)) return;
				if (!isVisible(el)) return;
				claimed.add(el);
				const rect = el.getBoundingClientRect();
				result.push({
					kind: kind,
					displayText: displayText(el),
					inputType: inputType(el),
					placeholder: el.getAttribute('placeholder') || '',
					ariaLabel: el.getAttribute('aria-label') || '',
					associatedLabel: (kind === 'input' || kind === 'search') ? associatedLabel(el) : '',
					domId: el.id || '',
					cssClasses: (typeof el.className === 'string') ? el.className : '',
					selector: buildSelector(el),
					top: rect.top,
					left: rect.left,
					bottom: rect.bottom,
					right: rect.right,
					width: rect.width,
					height: rect.height,
					centerX: rect.left + rect.width / 2,
					centerY: rect.top + rect.height / 2
				});
			};

			const searchHint = /search/i;
			document.querySelectorAll('input, [role="searchbox"]').forEach(el => {
				const type = (el.type || '').toLowerCase();
				const hit = type === 'search' ||
					searchHint.test(el.name || '') ||
					searchHint.test(el.id || '') ||
					searchHint.test(el.getAttribute('placeholder') || '') ||
					searchHint.test(el.getAttribute('aria-label') || '') ||
					el.getAttribute('role') === 'searchbox';
				if (hit) emit(el, 'search');
			});

			document.querySelectorAll('button, input[type="button"], input[type="submit"], [role="button"]').forEach(el => {
				emit(el, 'button');
			});

			document.querySelectorAll('a[href]').forEach(el => {
				const rect = el.getBoundingClientRect();
				if (rect.width >= 10 && rect.height >= 10) emit(el, 'link');
			});

			document.querySelectorAll('input[type="text"], input[type="email"], input[type="password"], input[type="tel"], input[type="url"], input[type="number"], input[type="file"], input:not([type]), textarea').forEach(el => {
				emit(el, 'input');
			});

			return result;
		} catch (e) {
			return [];
		}
	})()`
}
