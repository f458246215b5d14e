package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/jobwatch/internal/jobstatus"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

// JobsPageID is the page ID of the queue status view.
const JobsPageID = "jobs"

// statusMsg delivers the fetch outcome of one activation.
type statusMsg struct {
	token jobstatus.Token
	event jobstatus.Event
}

// JobsPage shows queue counters and in-progress jobs. Each Init is a fresh
// activation with exactly one fetch; results from an earlier activation, or
// arriving after Unmount, are dropped.
type JobsPage struct {
	loader    *jobstatus.Loader
	lifecycle jobstatus.Lifecycle
	token     jobstatus.Token
	cancel    context.CancelFunc
	state     jobstatus.State

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	queues  table.Model
	jobs    table.Model
	tab     int

	width  int
	height int
	now    func() time.Time
}

// NewJobsPage creates the jobs page around loader.
func NewJobsPage(loader *jobstatus.Loader) *JobsPage {
	return &JobsPage{
		loader:  loader,
		state:   jobstatus.Initial(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: newLoadingSpinner(),
		queues:  newTable(queueColumns, true),
		jobs:    newTable(jobColumns, false),
		now:     time.Now,
	}
}

func newTable(headers []string, focused bool) table.Model {
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: len(h) + 2}
	}
	return table.New(
		table.WithColumns(cols),
		table.WithFocused(focused),
		table.WithHeight(5),
	)
}

func (p *JobsPage) ID() string { return JobsPageID }

// State returns the current view state.
func (p *JobsPage) State() jobstatus.State { return p.state }

// Init activates the page: it resets to Loading and starts the single fetch.
func (p *JobsPage) Init() tea.Cmd {
	p.Unmount()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.token = p.lifecycle.Activate()
	p.state = jobstatus.Initial()
	p.setRows(model.Status{})

	return tea.Batch(p.spinner.Tick, p.load(ctx, p.token))
}

// Unmount invalidates the activation and cancels its fetch.
func (p *JobsPage) Unmount() {
	p.lifecycle.Teardown()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *JobsPage) load(ctx context.Context, token jobstatus.Token) tea.Cmd {
	loader := p.loader
	return func() tea.Msg {
		return statusMsg{token: token, event: loader.Load(ctx)}
	}
}

func (p *JobsPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case statusMsg:
		p.lifecycle.Apply(msg.token, func() {
			p.state = jobstatus.Transition(p.state, msg.event)
			if status, ok := p.state.Status(); ok {
				p.setRows(status)
			}
		})
		return nil, nil

	case spinner.TickMsg:
		if p.state.Kind() != jobstatus.Loading {
			return nil, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd, nil

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.resize()
		return nil, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.ForceQuit), key.Matches(msg, p.keys.Quit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Help):
			return nil, &PageNav{PageID: HelpPageID, Params: JobsPageID}
		case key.Matches(msg, p.keys.Reload):
			return p.Init(), nil
		case key.Matches(msg, p.keys.NextTab):
			p.selectTab((p.tab + 1) % len(tabTitles))
			return nil, nil
		case key.Matches(msg, p.keys.PrevTab):
			p.selectTab((p.tab + len(tabTitles) - 1) % len(tabTitles))
			return nil, nil
		}

		var cmd tea.Cmd
		if p.tab == tabQueues {
			p.queues, cmd = p.queues.Update(msg)
		} else {
			p.jobs, cmd = p.jobs.Update(msg)
		}
		return cmd, nil
	}
	return nil, nil
}

func (p *JobsPage) selectTab(tab int) {
	p.tab = tab
	if tab == tabQueues {
		p.queues.Focus()
		p.jobs.Blur()
	} else {
		p.jobs.Focus()
		p.queues.Blur()
	}
}

func (p *JobsPage) setRows(status model.Status) {
	p.queues.SetRows(queueRows(status.QueueCounters))
	p.jobs.SetRows(jobRows(status.StartedJobs, p.now()))
	p.queues.SetCursor(0)
	p.jobs.SetCursor(0)
}

// resize spreads the available width over the table columns.
func (p *JobsPage) resize() {
	if p.width <= 0 {
		return
	}
	inner := max(20, p.width-4)
	tableHeight := max(3, p.height-14)

	p.queues.SetColumns([]table.Column{
		{Title: queueColumns[0], Width: max(10, inner/2)},
		{Title: queueColumns[1], Width: max(8, inner/4-2)},
		{Title: queueColumns[2], Width: max(8, inner/4-2)},
	})
	p.queues.SetHeight(tableHeight)

	fixed := 10 + 12
	rest := max(30, inner-fixed-2*len(jobColumns))
	p.jobs.SetColumns([]table.Column{
		{Title: jobColumns[0], Width: 10},
		{Title: jobColumns[1], Width: rest / 3},
		{Title: jobColumns[2], Width: rest / 2},
		{Title: jobColumns[3], Width: rest - rest/3 - rest/2},
		{Title: jobColumns[4], Width: 12},
	})
	p.jobs.SetHeight(tableHeight)

	p.help.Width = p.width
}

func (p *JobsPage) View(width, height int) string {
	header := titleStyle.Render(jobstatus.JobsRoute.Title)
	footer := statusLineStyle.Width(max(0, width)).Render(p.help.View(p.keys))

	var body string
	if p.state.Kind() == jobstatus.Failed {
		body = renderAlert(width)
	} else {
		body = p.renderContent(width, height)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer)
}

func (p *JobsPage) renderContent(width, height int) string {
	loading := p.state.Kind() == jobstatus.Loading
	status, _ := p.state.Status()

	cards := renderCounterCards(status.Overall, loading, p.spinner.View())
	tabs := renderTabs(p.tab)

	var content string
	switch {
	case loading:
		content = renderLoadingPlaceholder(p.spinner.View(), max(0, width-2), 5)
	case p.tab == tabQueues:
		content = p.queues.View()
		if chart := renderQueueChart(status.QueueCounters, max(0, width-4), max(0, height-p.queues.Height()-16)); chart != "" {
			content = lipgloss.JoinVertical(lipgloss.Left, content, "", chart)
		}
	default:
		content = p.jobs.View()
	}

	panel := sectionStyle
	if width > 2 {
		panel = panel.Width(width - 2)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards, "", tabs, panel.Render(content))
}
