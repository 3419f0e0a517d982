package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTable renders a table as a CREATE TABLE block followed by its sample
// rows in a comment, the shape language models are used to seeing.
func FormatTable(table Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(table.Name)
	b.WriteString(" (\n")
	for i, column := range table.Columns {
		b.WriteString("\t")
		b.WriteString(column.Name)
		if column.Type != "" {
			b.WriteString(" ")
			b.WriteString(column.Type)
		}
		if !column.Nullable && column.Type != "" {
			b.WriteString(" NOT NULL")
		}
		if i < len(table.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")\n")

	if len(table.SampleColumns) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\n/*\n%d rows from %s table:\n", len(table.SampleRows), table.Name)
	b.WriteString(strings.Join(table.SampleColumns, "\t"))
	b.WriteString("\n")
	for _, row := range table.SampleRows {
		b.WriteString(joinValues(row))
		b.WriteString("\n")
	}
	b.WriteString("*/\n")
	return b.String()
}

func FormatTables(tables []Table) string {
	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		parts = append(parts, FormatTable(table))
	}
	return strings.Join(parts, "\n")
}

// FormatResult renders a result as tab-separated lines with a header row.
func FormatResult(result Result) string {
	if len(result.Columns) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, "\t"))
	b.WriteString("\n")
	for _, row := range result.Rows {
		b.WriteString(joinValues(row))
		b.WriteString("\n")
	}
	switch {
	case len(result.Rows) == 0:
		b.WriteString("(no rows)\n")
	case result.Truncated:
		fmt.Fprintf(&b, "(truncated to %d rows)\n", len(result.Rows))
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinValues(row []any) string {
	values := make([]string, len(row))
	for i, value := range row {
		values[i] = FormatValue(value)
	}
	return strings.Join(values, "\t")
}

func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case string:
		return typed
	case []byte:
		return string(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format("2006-01-02")
		}
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}
