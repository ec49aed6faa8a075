package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/zudaR107/todo-app/pkg/client"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#5C7A84")
)

var styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Column  lipgloss.Style
	Card    lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Column: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(columnWidth),
	Card: lipgloss.NewStyle().Width(columnWidth - 2),
}

const columnWidth = 32

var priorityStyles = map[string]lipgloss.Style{
	"high":   lipgloss.NewStyle().Foreground(colorError),
	"normal": lipgloss.NewStyle().Foreground(colorAccent),
	"low":    lipgloss.NewStyle().Foreground(colorMuted),
}

// render prints v in the selected output format. table builds the human view.
func render(w io.Writer, v any, table func() string) error {
	switch outputMode {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		_, err := fmt.Fprintln(w, table())
		return err
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", outputMode)
	}
}

func successLine(text string) string {
	return styles.Success.Render("✓ " + text)
}

func warningLine(text string) string {
	return styles.Warning.Render("⚠ " + text)
}

// printError shows an API error with its validation details, one per line.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, styles.Error.Render("✗ "+errorMessage(err)))

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	if d, ok := apiErr.ValidationDetails(); ok {
		for _, f := range d.Fields {
			fmt.Fprintf(w, "  %s %s\n", styles.Bold.Render(f.Field+":"), f.Message)
		}
		for _, msg := range d.Form {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		if d.JSON != "" {
			fmt.Fprintf(w, "  %s\n", d.JSON)
		}
	}
	if apiErr.RequestID != "" {
		fmt.Fprintln(w, styles.Muted.Render("  request id "+apiErr.RequestID))
	}
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func userView(u client.User) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(u.DisplayName))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", styles.Muted.Render("email"), u.Email)
	fmt.Fprintf(&b, "%s  %s\n", styles.Muted.Render("role"), u.Role)
	fmt.Fprintf(&b, "%s    %s", styles.Muted.Render("id"), u.ID)
	return b.String()
}

func projectsView(items []client.Project) string {
	if len(items) == 0 {
		return styles.Muted.Render("no projects")
	}
	var b strings.Builder
	for i, p := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		swatch := "  "
		if p.Color != "" {
			swatch = lipgloss.NewStyle().Background(lipgloss.Color(expandHex(p.Color))).Render("  ")
		}
		fmt.Fprintf(&b, "%s %s  %s", swatch, styles.Bold.Render(p.Name), styles.Muted.Render(p.ID))
	}
	return b.String()
}

// expandHex turns #abc into #aabbcc.
func expandHex(c string) string {
	if len(c) != 4 || c[0] != '#' {
		return c
	}
	return string([]byte{'#', c[1], c[1], c[2], c[2], c[3], c[3]})
}

func taskLine(t client.Task) string {
	prio := priorityStyles[t.Priority].Render(t.Priority)
	line := fmt.Sprintf("[%s] %s  %s", t.Status, t.Title, prio)
	if t.DueAt != nil {
		line += styles.Muted.Render("  due " + t.DueAt.Local().Format(time.DateTime))
	}
	return line + styles.Muted.Render("  "+t.ID)
}

func tasksView(items []client.Task) string {
	if len(items) == 0 {
		return styles.Muted.Render("no tasks")
	}
	lines := make([]string, len(items))
	for i, t := range items {
		lines[i] = taskLine(t)
	}
	return strings.Join(lines, "\n")
}

func taskView(t client.Task) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(t.Title))
	b.WriteString("\n")
	row := func(k, v string) {
		fmt.Fprintf(&b, "%s %s\n", styles.Muted.Render(fmt.Sprintf("%-9s", k)), v)
	}
	row("id", t.ID)
	row("project", t.ProjectID)
	row("status", t.Status)
	row("priority", priorityStyles[t.Priority].Render(t.Priority))
	if t.Description != "" {
		row("notes", t.Description)
	}
	if t.StartAt != nil {
		row("start", t.StartAt.Local().Format(time.DateTime))
	}
	if t.DueAt != nil {
		row("due", t.DueAt.Local().Format(time.DateTime))
	}
	if t.AllDay != nil && *t.AllDay {
		row("all day", "yes")
	}
	if len(t.Tags) > 0 {
		row("tags", strings.Join(t.Tags, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// boardView draws the columns side by side.
func boardView(bd client.Board) string {
	cols := make([]string, 0, len(bd.Columns))
	for _, col := range bd.Columns {
		var b strings.Builder
		b.WriteString(styles.Title.Render(fmt.Sprintf("%s (%d)", col.Name, len(col.Tasks))))
		for _, t := range col.Tasks {
			b.WriteString("\n")
			card := "• " + t.Title
			if t.Priority != "" && t.Priority != "normal" {
				card += " " + priorityStyles[t.Priority].Render("!"+t.Priority)
			}
			b.WriteString(styles.Card.Render(card))
		}
		cols = append(cols, styles.Column.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// calendarView groups events by local day.
func calendarView(events []client.CalendarEvent) string {
	if len(events) == 0 {
		return styles.Muted.Render("nothing scheduled")
	}

	byDay := map[string][]client.CalendarEvent{}
	for _, e := range events {
		day := e.Start.Local().Format(time.DateOnly)
		byDay[day] = append(byDay[day], e)
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	var b strings.Builder
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.Title.Render(d))
		for _, e := range byDay[d] {
			when := "all day"
			if e.AllDay == nil || !*e.AllDay {
				when = e.Start.Local().Format("15:04")
				if e.End != nil {
					when += "-" + e.End.Local().Format("15:04")
				}
			}
			fmt.Fprintf(&b, "\n  %s  %s %s", styles.Muted.Render(fmt.Sprintf("%-11s", when)), e.Title, styles.Muted.Render("["+e.Status+"]"))
		}
	}
	return b.String()
}
