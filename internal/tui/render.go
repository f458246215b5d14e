package tui

import (
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/tinytelemetry/jobwatch/internal/jobstatus"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

const (
	tabQueues = iota
	tabOtherJobs
)

var tabTitles = []string{"Queues", "Other Jobs"}

var (
	queueColumns = []string{"Name", "Started", "Queued"}
	jobColumns   = []string{"Queue", "Job ID", "Name", "Query ID", "Started"}
)

// renderCounterCards renders the Started Jobs and Queued Jobs cards. While
// loading, placeholder replaces the values.
func renderCounterCards(overall model.OverallCounters, loading bool, placeholder string) string {
	card := func(title string, value int) string {
		v := humanize.Comma(int64(value))
		if loading {
			v = placeholder
		}
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render(title),
			cardValueStyle.Render(v),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Started Jobs", overall.Started),
		" ",
		card("Queued Jobs", overall.Queued),
	)
}

func renderAlert(width int) string {
	style := alertStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(jobstatus.FailureNotice)
}

func renderTabs(active int) string {
	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		if i == active {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = tabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderQueueChart draws one stacked bar per queue: started at the bottom,
// queued on top.
func renderQueueChart(counters []model.QueueCounter, width, height int) string {
	if len(counters) == 0 || width < 10 || height < 4 {
		return ""
	}

	barWidth := max(1, min(6, (width-len(counters))/len(counters)))
	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
	)
	for _, q := range counters {
		bc.Push(barchart.BarData{
			Label: truncateLabel(q.Name, barWidth),
			Values: []barchart.BarValue{
				{Name: "started", Value: float64(q.Started), Style: startedBarStyle},
				{Name: "queued", Value: float64(q.Queued), Style: queuedBarStyle},
			},
		})
	}
	bc.Draw()

	legend := lipgloss.JoinHorizontal(lipgloss.Top,
		startedBarStyle.Render("█ started"),
		"  ",
		queuedBarStyle.Render("█ queued"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, bc.View(), legend)
}

// truncateLabel cuts s to at most width terminal cells without splitting runes.
func truncateLabel(s string, width int) string {
	return ansi.Truncate(s, width, "")
}

func queueRows(counters []model.QueueCounter) []table.Row {
	rows := make([]table.Row, 0, len(counters))
	for _, q := range counters {
		rows = append(rows, table.Row{
			q.Name,
			humanize.Comma(int64(q.Started)),
			humanize.Comma(int64(q.Queued)),
		})
	}
	return rows
}

func jobRows(jobs []model.Job, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, table.Row{
			orDash(j.Field("origin")),
			orDash(j.Field("id")),
			orDash(j.Field("name")),
			orDash(j.Field("meta", "query_id")),
			jobAge(j.Field("started_at"), now),
		})
	}
	return rows
}

// jobAge renders an RQ timestamp relative to now, or the raw value when it
// does not parse.
func jobAge(raw string, now time.Time) string {
	if raw == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderStatus renders a one-shot, non-interactive report of state.
func RenderStatus(state jobstatus.State, now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(jobstatus.JobsRoute.Title))
	b.WriteString("\n")

	status, ok := state.Status()
	if !ok {
		if state.Kind() == jobstatus.Failed {
			b.WriteString(renderAlert(0))
		} else {
			b.WriteString("Loading...")
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(renderCounterCards(status.Overall, false, ""))
	b.WriteString("\n\n")
	b.WriteString(tabStyle.Render(tabTitles[tabQueues]))
	b.WriteString("\n")
	b.WriteString(plainTable(queueColumns, queueRows(status.QueueCounters)))
	b.WriteString("\n\n")
	b.WriteString(tabStyle.Render(tabTitles[tabOtherJobs]))
	b.WriteString("\n")
	b.WriteString(plainTable(jobColumns, jobRows(status.StartedJobs, now)))
	b.WriteString("\n")
	return b.String()
}

func plainTable(headers []string, rows []table.Row) string {
	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorGray)).
		Headers(headers...)
	for _, row := range rows {
		t.Row(row...)
	}
	return t.String()
}
