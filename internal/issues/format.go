package issues

import (
	"strconv"
	"strings"
	"time"
)

// dateLayout renders dates the way the issue table shows them.
const dateLayout = "Mon Jan 02 2006"

// columns are the issue table headings in display order.
var columns = []string{"ID", "Title", "Status", "Owner", "Created", "Effort", "Due"}

// textCell renders a string cell; empty values become N/A, as do zero
// numbers and missing dates below.
func textCell(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func intCell(n int) string {
	if n == 0 {
		return "N/A"
	}
	return strconv.Itoa(n)
}

func dateCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(dateLayout)
}

// formatRow renders one issue as a table row.
func formatRow(is Issue) string {
	return strings.Join([]string{
		intCell(is.ID),
		textCell(is.Title),
		textCell(string(is.Status)),
		textCell(is.Owner),
		dateCell(is.Created),
		intCell(is.Effort),
		dateCell(is.Due),
	}, " | ")
}

// FormatTable renders issues as a pipe-separated table with a header row.
func FormatTable(list []Issue) string {
	if len(list) == 0 {
		return "No issues yet."
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, " | "))
	for _, is := range list {
		sb.WriteByte('\n')
		sb.WriteString(formatRow(is))
	}
	return sb.String()
}
