package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable draws the rounded tables used for stage summaries and status
// output. Count columns, detected as columns whose populated cells are all
// integers, are right-aligned; headers and text cells stay left-aligned.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, name := range headers {
		header[i] = name
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(headers))
		for i := range headers {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}

	var configs []table.ColumnConfig
	for i := range headers {
		if !numericColumn(rows, i) {
			continue
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	if len(configs) > 0 {
		tw.SetColumnConfigs(configs)
	}

	return tw.Render()
}

// numericColumn reports whether column idx holds at least one cell and every
// populated cell parses as an integer.
func numericColumn(rows [][]string, idx int) bool {
	populated := false
	for _, row := range rows {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		if _, err := strconv.Atoi(row[idx]); err != nil {
			return false
		}
		populated = true
	}
	return populated
}
