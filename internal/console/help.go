package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func writeHelp(w io.Writer, g *Grammar) {
	fmt.Fprintln(w, "netspy inspects the topics, participants and endpoints of the network.")
	fmt.Fprintln(w, "Commands:")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	for _, e := range g.Entries() {
		usage := e.Aliases[0]
		if e.Args != "" {
			usage += " " + e.Args
		}

		var aliases []string
		for _, alias := range e.Aliases[1:] {
			if alias == "" {
				alias = "<enter>"
			}
			aliases = append(aliases, alias)
		}
		aliasText := "-"
		if len(aliases) > 0 {
			aliasText = strings.Join(aliases, ", ")
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s\n", usage, aliasText, e.Usage)
	}
}
