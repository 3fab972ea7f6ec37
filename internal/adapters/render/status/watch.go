package status

import (
	"context"
	"time"

	"github.com/bnema/tsdm-autosign/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

const refreshInterval = time.Second

type loadedMsg struct {
	snapshots []application.AccountSnapshot
	opts      RenderOptions
	err       error
}

type tickMsg time.Time

type changedMsg struct{}

type watchModel struct {
	ctx     context.Context
	load    Loader
	changes <-chan struct{}
	styles  styles

	snapshots []application.AccountSnapshot
	opts      RenderOptions
	err       error
	loaded    bool
}

func newWatchModel(ctx context.Context, load Loader, changes <-chan struct{}) watchModel {
	return watchModel{
		ctx:     ctx,
		load:    load,
		changes: changes,
		styles:  newStyles(),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.reload(), tick(), m.waitChange())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case loadedMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.snapshots = msg.snapshots
			m.opts = msg.opts
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.reload(), tick())
	case changedMsg:
		return m, tea.Batch(m.reload(), m.waitChange())
	default:
		return m, nil
	}
}

func (m watchModel) View() string {
	if !m.loaded {
		return m.styles.empty.Render("loading…")
	}

	view := renderView(m.snapshots, m.opts, m.styles)
	if m.err != nil {
		view += "\n" + m.styles.warning.Render("refresh failed: "+m.err.Error())
	}
	return view + "\n" + m.styles.footer.Render("q to quit")
}

func (m watchModel) reload() tea.Cmd {
	return func() tea.Msg {
		snapshots, opts, err := m.load(m.ctx)
		return loadedMsg{snapshots: snapshots, opts: opts, err: err}
	}
}

func (m watchModel) waitChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case _, ok := <-m.changes:
			if !ok {
				return nil
			}
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
