package main

import (
	"os"

	"hook-screener/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable keeps header case as given. With colorize set, status labels
// are tinted green or red and headers are bold.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment, colorize bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold}
	}

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = cell(row[i], colorize)
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func cell(value string, colorize bool) string {
	if !colorize {
		return value
	}
	switch value {
	case statusLabel(models.StatusApproved), "pass":
		return text.FgGreen.Sprint(value)
	case statusLabel(models.StatusRejected), "fail":
		return text.FgRed.Sprint(value)
	case "skipped":
		return text.FgHiBlack.Sprint(value)
	}
	return value
}

// renderChecks summarizes a verdict as one row per check.
func renderChecks(v models.Verdict, colorize bool) string {
	rows := make([][]string, 0, len(v.Checks)+1)
	for _, c := range v.Checks {
		result := "fail"
		switch {
		case c.Skipped:
			result = "skipped"
		case c.Passed:
			result = "pass"
		}
		rows = append(rows, []string{string(c.Dimension), result, c.Detail})
	}
	rows = append(rows, []string{"verdict", statusLabel(v.Status), v.ReasonCode})
	return renderTable([]string{"Check", "Result", "Detail"}, rows, nil, colorize)
}

func shouldColorize(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
