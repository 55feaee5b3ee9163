package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/compound-data-tool/internal/domain"
)

const (
	codeWidth  = 4
	stampWidth = 26
	listWidth  = 2 + codeWidth + 3 + stampWidth + 2
)

// StampHeader returns the lines printed above the first listing row.
func StampHeader() []string {
	return []string{
		strings.Repeat("-", listWidth),
		stampRow("name", "updated_at"),
		"|" + strings.Repeat("-", codeWidth+2) + "+" + strings.Repeat("-", stampWidth+2) + "|",
	}
}

// StampRow formats one listing row: the code centred, the timestamp left
// aligned.
func StampRow(s domain.Stamp) string {
	return stampRow(s.Compound, s.UpdatedISO())
}

// StampFooter returns the line closing a non-empty listing.
func StampFooter() string { return strings.Repeat("-", listWidth) }

// Stamps renders a complete listing. It returns nil for no stamps; callers
// print their own guidance in that case.
func Stamps(stamps []domain.Stamp) []string {
	if len(stamps) == 0 {
		return nil
	}
	out := StampHeader()
	for _, s := range stamps {
		out = append(out, StampRow(s))
	}
	return append(out, StampFooter())
}

func stampRow(code, updated string) string {
	return fmt.Sprintf("| %s | %-*s |", center(code, codeWidth), stampWidth, updated)
}

// center pads s to width, putting the odd space on the right.
func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
