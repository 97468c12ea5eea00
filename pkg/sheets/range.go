package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// A1 builds a range on the named sheet, e.g. A1("RAW STAT ENTRIES", "A:D")
// gives 'RAW STAT ENTRIES'!A:D. An empty cells part addresses the whole sheet.
func A1(sheet, cells string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

// ColumnName converts a 1 based column number to its letters (1 -> A, 27 -> AA).
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "A"
	}
	return name
}

// Bounds is a parsed cell range. Columns and rows are 1 based; zero means
// the side is open.
type Bounds struct {
	Col1, Row1 int
	Col2, Row2 int
}

// ParseA1 splits a range into sheet name and bounds.
func ParseA1(rng string) (string, Bounds, error) {
	sheet, cells, err := splitSheet(rng)
	if err != nil {
		return "", Bounds{}, err
	}
	if cells == "" {
		return sheet, Bounds{}, nil
	}

	first, second, isPair := strings.Cut(cells, ":")
	c1, r1, err := parseCell(first)
	if err != nil {
		return "", Bounds{}, fmt.Errorf("range %q: %w", rng, err)
	}
	if !isPair {
		return sheet, Bounds{Col1: c1, Row1: r1, Col2: c1, Row2: r1}, nil
	}
	c2, r2, err := parseCell(second)
	if err != nil {
		return "", Bounds{}, fmt.Errorf("range %q: %w", rng, err)
	}
	return sheet, Bounds{Col1: c1, Row1: r1, Col2: c2, Row2: r2}, nil
}

func splitSheet(rng string) (string, string, error) {
	if strings.HasPrefix(rng, "'") {
		var b strings.Builder
		for i := 1; i < len(rng); i++ {
			if rng[i] != '\'' {
				b.WriteByte(rng[i])
				continue
			}
			if i+1 < len(rng) && rng[i+1] == '\'' {
				b.WriteByte('\'')
				i++
				continue
			}
			rest := rng[i+1:]
			if rest == "" {
				return b.String(), "", nil
			}
			if rest[0] != '!' {
				return "", "", fmt.Errorf("range %q: expected '!' after sheet name", rng)
			}
			return b.String(), rest[1:], nil
		}
		return "", "", fmt.Errorf("range %q: unterminated sheet name", rng)
	}
	sheet, cells, _ := strings.Cut(rng, "!")
	if sheet == "" {
		return "", "", fmt.Errorf("range %q: missing sheet name", rng)
	}
	return sheet, cells, nil
}

func parseCell(cell string) (int, int, error) {
	cell = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(cell, "$", "")))
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		i++
	}
	letters, digits := cell[:i], cell[i:]
	if letters == "" && digits == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	col := 0
	if letters != "" {
		n, err := excelize.ColumnNameToNumber(letters)
		if err != nil {
			return 0, 0, err
		}
		col = n
	}
	row := 0
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid row in %q", cell)
		}
		row = n
	}
	return col, row, nil
}
