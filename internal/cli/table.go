package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

// writeTable renders headers and rows with columns aligned on display
// width, so wide runes and ANSI-styled cells line up.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			if i >= cols {
				break
			}
			if w := cellWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	w := bufio.NewWriter(out)
	writeRow := func(row []string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			w.WriteString(cell)
			if i < cols-1 {
				pad := widths[i] - cellWidth(cell)
				if pad < 0 {
					pad = 0
				}
				w.WriteString(strings.Repeat(" ", pad+tablePadding))
			}
		}
		w.WriteByte('\n')
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return w.Flush()
}

func cellWidth(value string) int {
	return runewidth.StringWidth(stripANSI(value))
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// stripANSI drops CSI escape sequences so styled cells measure correctly.
func stripANSI(value string) string {
	if !strings.Contains(value, "\x1b") {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != 0x1b || i+1 >= len(value) || value[i+1] != '[' {
			b.WriteByte(value[i])
			continue
		}
		i += 2
		for i < len(value) {
			if ch := value[i]; ch >= 0x40 && ch <= 0x7e {
				break
			}
			i++
		}
	}
	return b.String()
}
