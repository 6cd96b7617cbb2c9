// Package tui renders work records in the terminal, either as a one-shot
// table or as a live bubbletea program.
package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/mmynk/worklog/internal/calculator"
	"github.com/mmynk/worklog/internal/models"
)

// Empty stands in for zero optional values.
const Empty = "-"

// Currency is appended to formatted amounts.
const Currency = "원"

// Headers are the table column titles, in row order.
var Headers = []string{
	"Date", "Name", "Company", "Location", "Start", "End",
	"Day", "Night", "Late", "Extra", "Memo",
}

// Hours formats an optional hour value.
func Hours(h float64) string {
	if h == 0 {
		return Empty
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// Amount formats an amount with thousands separators and the currency
// suffix.
func Amount(n int64) string {
	if n == 0 {
		return Empty
	}
	return humanize.Comma(n) + Currency
}

func text(s string) string {
	if s == "" {
		return Empty
	}
	return s
}

// Row formats r in Headers order. Day hours are required and always shown
// as a number.
func Row(r models.WorkRecord) []string {
	return []string{
		r.Date.String(),
		r.Name,
		r.Company,
		r.Location,
		r.StartTime,
		r.EndTime,
		strconv.FormatFloat(r.DayHours, 'f', -1, 64),
		Hours(r.NightHours),
		Hours(r.LateNightHours),
		Amount(r.ExtraAmount),
		text(r.Memo),
	}
}

// Rows formats every record.
func Rows(records []models.WorkRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = Row(r)
	}
	return rows
}

// TotalsLine summarizes s on one line.
func TotalsLine(s calculator.Summary) string {
	return fmt.Sprintf("%s records | day %s h | night %s h | late %s h | total %s h | extra %s",
		humanize.Comma(int64(s.Count)),
		hoursOrZero(s.DayHours),
		hoursOrZero(s.NightHours),
		hoursOrZero(s.LateNightHours),
		hoursOrZero(s.TotalHours()),
		amountOrZero(s.ExtraAmount),
	)
}

func hoursOrZero(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func amountOrZero(n int64) string {
	return humanize.Comma(n) + Currency
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// Render draws records and their totals as a bordered table.
func Render(records []models.WorkRecord, totals calculator.Summary) string {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(Headers...).
		Rows(Rows(records)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render() + "\n" + footerStyle.Render(TotalsLine(totals)) + "\n"
}

// RenderGroups draws per-group totals as a bordered table.
func RenderGroups(title string, groups []calculator.GroupSummary) string {
	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{
			g.Key,
			humanize.Comma(int64(g.Count)),
			hoursOrZero(g.DayHours),
			hoursOrZero(g.NightHours),
			hoursOrZero(g.LateNightHours),
			hoursOrZero(g.TotalHours()),
			amountOrZero(g.ExtraAmount),
		}
	}
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(title, "Records", "Day", "Night", "Late", "Total", "Extra").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render() + "\n"
}
