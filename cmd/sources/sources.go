// Package sources implements the `sources` command: list the configured
// connectors with their capabilities and priorities.
package sources

import (
	"fmt"
	"io"

	"bookhunt/internal/cmdutil"
	"bookhunt/internal/source"
)

// Run prints the configured sources to w.
func Run(w io.Writer) error {
	return List(w, cmdutil.BuildRegistry())
}

// List writes one line per registered connector, in registration order.
func List(w io.Writer, registry *source.Registry) error {
	if registry.Len() == 0 {
		fmt.Fprintln(w, "No sources configured. Add a sources: list to config.yaml.")
		return nil
	}

	descs := registry.Descriptors()
	for i, src := range registry.All() {
		state := "enabled"
		if !descs[i].Enabled {
			state = "disabled"
		}
		fmt.Fprintf(w, "%-3d %s [%s, priority %d, %s]\n",
			i+1, source.Describe(src), descs[i].Kind, descs[i].Priority, state)
	}
	return nil
}
