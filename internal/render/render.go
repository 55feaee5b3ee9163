// Package render turns compound summaries and cache listings into the
// fixed-width text tables printed by the CLI and returned by the HTTP API.
//
// All functions are pure: they return the lines of a table without a
// trailing newline and never touch the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/tbourn/compound-data-tool/internal/domain"
)

const (
	// LabelWidth is the width of the right-aligned field name column.
	LabelWidth = 17
	// NarrowWidth is the value column width when long values are truncated.
	NarrowWidth = 13
	// WideWidth is the value column width when long values are wrapped.
	WideWidth = 59

	// truncateAt is the first value length that no longer fits NarrowWidth.
	truncateAt = NarrowWidth + 1
	keepChars  = 10
	ellipsis   = "..."
)

// Compound renders fields as a two column name/value table. With wide set,
// long values wrap over several rows of WideWidth characters and the field
// name is printed on the first of them only; otherwise values of 14 or more
// characters are cut to their first 10 characters followed by "...".
func Compound(fields []domain.Field, wide bool) []string {
	w := NarrowWidth
	if wide {
		w = WideWidth
	}
	row := func(label, value string) string {
		return fmt.Sprintf("| %*s | %-*s |", LabelWidth, label, w, value)
	}
	border := strings.Repeat("-", 2+LabelWidth+3+w+2)

	out := []string{
		border,
		row("name", "value"),
		"|" + strings.Repeat("-", 1+LabelWidth+3+w+1) + "|",
	}
	for _, f := range fields {
		if !wide {
			out = append(out, row(f.Name, truncate(f.Value)))
			continue
		}
		for i, part := range chunk(f.Value, w) {
			label := f.Name
			if i > 0 {
				label = ""
			}
			out = append(out, row(label, part))
		}
	}
	return append(out, border)
}

func truncate(v string) string {
	r := []rune(v)
	if len(r) < truncateAt {
		return v
	}
	return string(r[:keepChars]) + ellipsis
}

// chunk splits v into pieces of at most n characters. An empty value yields
// a single empty piece so that the field still gets its row.
func chunk(v string, n int) []string {
	r := []rune(v)
	if len(r) == 0 {
		return []string{""}
	}
	parts := make([]string, 0, (len(r)+n-1)/n)
	for len(r) > n {
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	return append(parts, string(r))
}
