package browser

import (
	"encoding/json"
	"fmt"
)

// Scripts run in the page. Node groups are tagged with a stable data attribute the first
// time they are seen so handles survive re-renders that reorder the DOM.
const nodeGroupsJS = `(() => {
  window.__mindreelSeq = window.__mindreelSeq || 0;
  return Array.from(document.querySelectorAll('g.node')).map(g => {
    if (!g.dataset.mindreelKey) {
      g.dataset.mindreelKey = String(++window.__mindreelSeq);
    }
    const label = g.querySelector('text.node-name');
    const symbol = g.querySelector('text.expand-symbol');
    return {
      key: g.dataset.mindreelKey,
      text: label ? label.textContent.trim() : '',
      expandable: !!(symbol && g.querySelector('circle')),
    };
  });
})()`

const svgMarkupJS = `Array.from(document.querySelectorAll('svg')).map(s => s.outerHTML)`

const clearHighlightJS = `(() => {
  document.querySelectorAll('[data-mindreel-highlight]').forEach(el => {
    el.style.stroke = el.dataset.mindreelStroke || '';
    el.style.strokeWidth = el.dataset.mindreelStrokeWidth || '';
    delete el.dataset.mindreelHighlight;
  });
  return true;
})()`

// nodeScript wraps body so it runs with g bound to the tagged node group, returning null
// when the group is no longer rendered.
func nodeScript(key, body string) string {
	quoted, _ := json.Marshal(key)
	return fmt.Sprintf(`(() => {
  const g = document.querySelector('g.node[data-mindreel-key=' + JSON.stringify(%s) + ']');
  if (!g) return null;
  %s
})()`, quoted, body)
}

func isExpandedJS(key string) string {
	return nodeScript(key, `const s = g.querySelector('text.expand-symbol');
  return !!(s && s.textContent.includes('<'));`)
}

func clickToggleJS(key string) string {
	return nodeScript(key, `const c = g.querySelector('circle');
  if (!c) return false;
  c.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window}));
  return true;`)
}

func scrollIntoViewJS(key string) string {
	return nodeScript(key, `g.scrollIntoView({block: 'center', inline: 'center', behavior: 'smooth'});
  return true;`)
}

func highlightJS(key string) string {
	return nodeScript(key, `const r = g.querySelector('rect');
  if (!r) return false;
  r.dataset.mindreelStroke = r.style.stroke;
  r.dataset.mindreelStrokeWidth = r.style.strokeWidth;
  r.dataset.mindreelHighlight = '1';
  r.style.stroke = 'rgb(255, 200, 0)';
  r.style.strokeWidth = '4px';
  return true;`)
}
