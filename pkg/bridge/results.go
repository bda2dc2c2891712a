package bridge

import (
	"database/sql"
	"fmt"
	"strings"
)

// Rowset is a captured query result, shaped for the tool surface.
type Rowset struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated"`
}

// scanRowset drains rows into a Rowset, stopping after maxRows rows when
// maxRows > 0.
func scanRowset(rows *sql.Rows, maxRows int) (*Rowset, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &Rowset{Columns: cols}

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if maxRows > 0 && len(rs.Rows) >= maxRows {
			rs.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return rs, nil
}

// formatValue renders a scanned value as display text.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Markdown renders the rowset as a markdown table. An empty rowset renders
// as a single informational line.
func (r *Rowset) Markdown() string {
	if len(r.Columns) == 0 {
		return "_no results_"
	}

	var b strings.Builder

	b.WriteString("| ")
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString(" |\n| ")
	for i := range r.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")

	for _, row := range r.Rows {
		b.WriteString("| ")
		for i, cell := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(escapeCell(cell))
		}
		b.WriteString(" |\n")
	}

	if r.Truncated {
		b.WriteString(fmt.Sprintf("\n_%d rows shown (result truncated)_\n", len(r.Rows)))
	}

	return b.String()
}

// escapeCell keeps cell text from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
