package compare

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	decreaseStyle = cellStyle.Foreground(lipgloss.Color("#F59E0B"))
	increaseStyle = cellStyle.Foreground(lipgloss.Color("#10B981"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))
)

// Render draws the result as a table with one line per group and a totals
// line at the bottom.
func Render(res Result) string {
	headers := append(append([]string{}, res.GroupBy...), "file1", "file2", "difference")
	rows := make([][]string, 0, len(res.Rows)+1)
	for _, r := range res.Rows {
		rows = append(rows, append(append([]string{}, r.Key...),
			strconv.Itoa(r.Count1), strconv.Itoa(r.Count2), signed(r.Delta())))
	}
	total := make([]string, len(res.GroupBy))
	if len(total) > 0 {
		total[0] = "total"
	}
	rows = append(rows, append(total,
		strconv.Itoa(res.Total1), strconv.Itoa(res.Total2), signed(res.Total2-res.Total1)))

	deltaCol := len(headers) - 1
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == deltaCol && row < len(rows):
				d, _ := strconv.Atoi(rows[row][col])
				if d < 0 {
					return decreaseStyle
				}
				if d > 0 {
					return increaseStyle
				}
			}
			return cellStyle
		})
	return t.Render()
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
