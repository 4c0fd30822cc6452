package leaderboard

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Write renders doc to w in the given format.
func Write(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return writeTable(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func writeTable(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\t#SUB1\t#SUB2\t#SUB3\tMAX\tSCORE\tSTATUS")
	for _, e := range doc.Teams {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			e.Rank, e.Name,
			cell(e.Submissions[0]), cell(e.Submissions[1]), cell(e.Submissions[2]),
			cell(e.MaxSubmissionScore), e.RankScore, e.Tier)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	source := doc.Source
	if doc.Fallback {
		source += " (fallback)"
	}
	_, err := fmt.Fprintf(w, "\nteams=%d max=%.1f mean=%.1f source=%s\n",
		doc.Stats.TeamCount, doc.Stats.MaxScore, doc.Stats.MeanScore, source)
	return err
}

func cell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
