// Package formatter renders export payloads as markdown for terminal output.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const minColumnWidth = 3

// FormatMarkdown aligns every pipe table in content by display width, so rows
// with wide (CJK) characters line up in a terminal. Text outside tables is kept.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")

	var out []string

	var table []string

	flush := func() {
		if len(table) > 0 {
			out = append(out, alignTable(table)...)
			table = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// A row starts and ends with a pipe.
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, line)

			continue
		}

		flush()

		out = append(out, line)
	}

	flush()

	return strings.Join(out, "\n")
}

func splitRow(row string) []string {
	parts := strings.Split(strings.TrimSpace(row), "|")

	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}

	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}

	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}

	return len(cells) > 0
}

// alignTable pads every cell to its column's display width. The separator row,
// when it is the second row, is redrawn with dashes.
func alignTable(rows []string) []string {
	// Needs at least header + separator
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	colCount := 0

	for _, row := range rows {
		cells := splitRow(row)
		table = append(table, cells)

		if len(cells) > colCount {
			colCount = len(cells)
		}
	}

	sepIdx := -1
	if isSeparatorRow(table[1]) {
		sepIdx = 1
	}

	widths := make([]int, colCount)
	for i := range widths {
		widths[i] = minColumnWidth
	}

	for r, cells := range table {
		if r == sepIdx {
			continue
		}

		for c, cell := range cells {
			if w := runewidth.StringWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}

	result := make([]string, 0, len(table))

	for r, cells := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for c := 0; c < colCount; c++ {
			sb.WriteString(" ")

			switch {
			case r == sepIdx:
				sb.WriteString(strings.Repeat("-", widths[c]))
			case c < len(cells):
				sb.WriteString(runewidth.FillRight(cells[c], widths[c]))
			default:
				sb.WriteString(strings.Repeat(" ", widths[c]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}
