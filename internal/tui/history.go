package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

type historyModel struct {
	store  *store.Store
	screen *Screen
	now    func() time.Time
	width  int
	height int

	totals []store.DailyTotal
	colors map[string]lipgloss.Color
	chart  barchart.Model
}

func newHistoryModel(st *store.Store, s *Screen) historyModel {
	return historyModel{
		store:  st,
		screen: s,
		now:    time.Now,
		colors: make(map[string]lipgloss.Color),
		chart:  barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, hh int) {
	h.width = w
	h.height = hh
}

type historyDataMsg struct {
	totals []store.DailyTotal
	err    error
}

// dateRange covers today and the HistoryDays before it, matching the
// window of the totals table.
func (h historyModel) dateRange() (time.Time, time.Time) {
	now := h.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -session.HistoryDays), today.AddDate(0, 0, 1)
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := h.dateRange()
		totals, err := h.store.DailyTotals(from, to)
		return historyDataMsg{totals: totals, err: err}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(historyDataMsg); ok {
		if msg.err != nil {
			return h, func() tea.Msg { return errorStatus("History error: %v", msg.err) }
		}
		h.totals = msg.totals
		h.buildChart()
	}
	return h, nil
}

func (h *historyModel) colorFor(task string) lipgloss.Color {
	if c, ok := h.colors[task]; ok {
		return c
	}
	c := taskPalette[len(h.colors)%len(taskPalette)]
	h.colors[task] = c
	return c
}

func (h *historyModel) buildChart() {
	chartWidth := max(h.width-8, 20)
	chartHeight := 10
	if h.height > 30 {
		chartHeight = 14
	}
	h.chart = barchart.New(chartWidth, chartHeight)

	from, to := h.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(store.DateLayout)

		var values []barchart.BarValue
		for _, t := range h.totals {
			if t.Date != date {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  t.Task,
				Value: float64(t.Minutes),
				Style: lipgloss.NewStyle().Foreground(h.colorFor(t.Task)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: d.Format("Mon 02"), Values: values})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4
	from, to := h.dateRange()
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ",
		mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006"))),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "", h.chart.View(), "", h.renderLegend(), "", h.renderTotals(w),
	))
}

func (h historyModel) renderTotals(w int) string {
	if len(h.screen.history) == 0 {
		return mutedStyle.Render("  " + session.NoHistoryMessage)
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-28s %8s %10s", "Task", "Minutes", "Total")),
		mutedStyle.Render("  " + strings.Repeat("─", max(min(w-6, 48), 0))),
	}
	for _, line := range h.screen.history {
		rows = append(rows, fmt.Sprintf("  %-28s %8d %10s", truncate(line.Task, 28), line.Minutes, line.Duration))
	}
	return strings.Join(rows, "\n")
}

func (h historyModel) renderLegend() string {
	seen := make(map[string]bool)
	var items []string
	for _, t := range h.totals {
		if seen[t.Task] {
			continue
		}
		seen[t.Task] = true
		dot := lipgloss.NewStyle().Foreground(h.colors[t.Task]).Render("●")
		items = append(items, dot+" "+t.Task)
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
