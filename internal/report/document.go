package report

import (
	"fmt"
	"html"
	"strings"
)

const styles = `* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Segoe UI', -apple-system, BlinkMacSystemFont, sans-serif; margin: 24px; background: #f8f9fa; color: #212529; }
h1 { font-size: 1.5rem; color: #1a1a2e; margin-bottom: 16px; padding-bottom: 10px; border-bottom: 3px solid #4361ee; }
.summary { background: #e9ecef; padding: 14px 20px; border-radius: 8px; margin-bottom: 20px; display: flex; gap: 32px; flex-wrap: wrap; font-size: 0.9rem; }
.summary .item { display: flex; align-items: center; gap: 6px; }
.summary .label { font-weight: 600; color: #495057; }
.summary .value { color: #212529; }
.summary .slowest-name { color: #e63946; font-weight: 700; }
.tree { font-size: 0.88rem; }
.tree ul { list-style: none; padding-left: 28px; border-left: 2px solid #dee2e6; margin: 0; }
.tree > ul { border-left: none; padding-left: 0; }
.tree li { position: relative; padding: 3px 0; }
.node { display: inline-flex; align-items: center; gap: 8px; padding: 5px 12px; border-radius: 6px; border: 1px solid #dee2e6; background: #fff; cursor: default; transition: all 0.15s; flex-wrap: wrap; }
.node:hover { box-shadow: 0 2px 8px rgba(0,0,0,0.08); }
.node.stdlib, .node.third_party { background: #f1f3f5; border-color: #ced4da; }
.node.stdlib .func-name, .node.third_party .func-name { color: #868e96; font-style: italic; }
.node.critical { background: #fff3cd; border-color: #e63946; border-width: 2px; }
.node.slowest { background: #e63946; border-color: #c1121f; }
.node.slowest .func-name { color: #fff; font-style: normal; }
.node.slowest .location,
.node.slowest .duration,
.node.slowest .times { color: rgba(255,255,255,0.85); }
.func-name { font-weight: 600; color: #1a1a2e; font-family: 'SF Mono', 'Fira Code', 'Cascadia Code', monospace; }
.location { font-size: 0.82em; color: #6c757d; font-family: 'SF Mono', 'Fira Code', monospace; }
.duration { font-size: 0.82em; color: #4361ee; font-weight: 600; }
.times { font-size: 0.78em; color: #adb5bd; }
.lib-badge { font-size: 0.72em; background: #dee2e6; color: #495057; padding: 1px 8px; border-radius: 10px; font-weight: 500; }
.node.slowest .lib-badge { background: rgba(255,255,255,0.25); color: #fff; }
.toggle { display: inline-block; width: 18px; font-size: 0.75em; text-align: center; cursor: pointer; user-select: none; color: #868e96; font-weight: bold; flex-shrink: 0; }
.toggle:hover { color: #4361ee; }
.hidden { display: none; }
.meta { margin-top: 20px; font-size: 0.78rem; color: #adb5bd; }`

const script = `function toggle(el) {
    var li = el.closest('li');
    var ul = li.querySelector(':scope > ul');
    if (!ul) return;
    if (ul.classList.contains('hidden')) {
        ul.classList.remove('hidden');
        el.textContent = '▼';
    } else {
        ul.classList.add('hidden');
        el.textContent = '▶';
    }
}`

func writeHead(b *strings.Builder, name string) {
	name = html.EscapeString(name)
	fmt.Fprintf(b, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>callprofiler: %s</title>
<style>
%s
</style>
</head>
<body>
<h1>Call Profile: %s</h1>
`, name, styles, name)
}

func writeFoot(b *strings.Builder, opts Options) {
	if opts.GeneratedAt != "" {
		fmt.Fprintf(b, "<div class=\"meta\">Generated at %s</div>\n", html.EscapeString(opts.GeneratedAt))
	}
	fmt.Fprintf(b, `<script>
%s
</script>
</body>
</html>`, script)
}
