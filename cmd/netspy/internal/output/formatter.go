package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nfrund/netspy/internal/spy"
	"github.com/nfrund/netspy/internal/topics"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Reliable   bool     `json:"reliable"`
	Keyed      bool     `json:"keyed"`
	Partitions []string `json:"partitions,omitempty"`
}

// DisplayTopicsTable displays topics in a formatted table
func DisplayTopicsTable(w io.Writer, discovered []topics.Descriptor) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tTYPE\tRELIABILITY\tKEYED\tPARTITIONS")
	fmt.Fprintln(tw, "----\t----\t-----------\t-----\t----------")

	if len(discovered) == 0 {
		fmt.Fprintln(tw, "No topics found")
		return
	}
	for _, d := range discovered {
		reliability := "best-effort"
		if d.QoS.Reliable {
			reliability = "reliable"
		}
		partitions := "-"
		if len(d.QoS.Partitions) > 0 {
			partitions = truncateString(strings.Join(d.QoS.Partitions, ","), 30)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			d.Name,
			truncateString(d.TypeName, 40),
			reliability,
			d.QoS.Keyed,
			partitions)
	}
}

// DisplayTopicsJSON displays topics in JSON format
func DisplayTopicsJSON(w io.Writer, discovered []topics.Descriptor, snapshot spy.Snapshot) error {
	displays := make([]TopicDisplay, len(discovered))
	for i, d := range discovered {
		displays[i] = TopicDisplay{
			Name:       d.Name,
			Type:       d.TypeName,
			Reliable:   d.QoS.Reliable,
			Keyed:      d.QoS.Keyed,
			Partitions: d.QoS.Partitions,
		}
	}

	out := struct {
		Topics  []TopicDisplay `json:"topics"`
		Count   int            `json:"count"`
		Writers int            `json:"writers"`
		Readers int            `json:"readers"`
	}{
		Topics:  displays,
		Count:   len(displays),
		Writers: snapshot.Writers,
		Readers: snapshot.Readers,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
