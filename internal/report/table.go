package report

import (
	"fmt"
	"strings"
)

// Row is one line of an aligned table: a left-aligned label followed by
// right-aligned, pre-formatted values.
type Row struct {
	Label  string
	Values []string
}

// Table renders aligned columns for per-channel result listings. Values are
// strings so mixed formatting (counts, scientific notation, "-") lines up.
type Table struct {
	Headers []string
	Rows    []Row
}

func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, v := range row.Values {
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, h := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s", widths[i], h))
		if i < len(t.Headers)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))
		for i := range t.Headers {
			v := "-"
			if i < len(row.Values) && row.Values[i] != "" {
				v = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s", widths[i], v))
			if i < len(t.Headers)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
