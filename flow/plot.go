package flow

import (
	"fmt"
	"sort"
	"strings"
)

// Plot renders the workflow's registered topology as Graphviz DOT text.
// This is a diagnostic snapshot of the template graph only — it has no
// per-session or per-execution state, doesn't shell out to graphviz, and
// doesn't open a viewer; callers that want an image pipe the output
// through `dot` themselves. The original implementation opened a browser
// with a rendered PNG; that interactive behavior has no place in a
// library used from a service, so this keeps only the data it would have
// rendered.
func (w *Workflow) Plot() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.templates))
	for name := range w.templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("digraph workflow {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %q;\n", name)
	}
	for _, name := range names {
		t := w.templates[name]
		succs := append([]string(nil), t.successors...)
		sort.Strings(succs)
		for _, succ := range succs {
			fmt.Fprintf(&b, "  %q -> %q;\n", name, succ)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
