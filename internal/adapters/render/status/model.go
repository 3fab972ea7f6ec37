package status

import (
	"context"
	"errors"
	"io"

	"github.com/bnema/tsdm-autosign/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	snapshots []application.AccountSnapshot
	opts      RenderOptions
	styles    styles
	output    string
}

func newModel(snapshots []application.AccountSnapshot, opts RenderOptions) model {
	return model{
		snapshots: snapshots,
		opts:      opts,
		styles:    newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.snapshots, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render draws one status frame.
func Render(snapshots []application.AccountSnapshot, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(snapshots, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

// Loader reads the accounts and render options of one frame. It runs on every refresh.
type Loader func(ctx context.Context) ([]application.AccountSnapshot, RenderOptions, error)

// Watch redraws the status every second and whenever changes fires, until ctx is done or
// the user quits.
func Watch(ctx context.Context, load Loader, changes <-chan struct{}, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		newWatchModel(ctx, load, changes),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
