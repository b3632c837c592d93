package cli

import (
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/wayfinder/internal/enrichment"
)

// detailsSettledMsg signals that the selection's fetch settled or was discarded.
type detailsSettledMsg struct{}

// detailsModel is the bubbletea model shown while enrichment is pending.
type detailsModel struct {
	ctrl     *enrichment.Controller
	spinner  spinner.Model
	theme    Theme
	snap     enrichment.Snapshot
	done     bool
	quitting bool
}

func newDetailsModel(ctrl *enrichment.Controller) detailsModel {
	return detailsModel{
		ctrl:    ctrl,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
		snap:    ctrl.Snapshot(),
	}
}

// Init starts the spinner and the wait for the fetch.
func (m detailsModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitSettled(m.ctrl),
	)
}

// Update handles messages and returns the updated model.
func (m detailsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case detailsSettledMsg:
		m.snap = m.ctrl.Snapshot()
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the pending display. The settled view is printed after the program exits.
func (m detailsModel) View() tea.View {
	if m.done || m.quitting {
		return tea.NewView("")
	}
	status := m.theme.statusStyle().Render(fmt.Sprintf("Loading details for %s", m.snap.DisplayName()))
	hint := m.theme.hintStyle().Render("Press q to close")
	return tea.NewView(fmt.Sprintf("%s %s\n%s\n", m.spinner.View(), status, hint))
}

// waitSettled blocks in a command goroutine until the controller is done.
func waitSettled(ctrl *enrichment.Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Done()
		return detailsSettledMsg{}
	}
}

// runDetailsView shows a spinner until the selection settles.
// Returns the final snapshot and whether the user closed the view early.
func runDetailsView(ctrl *enrichment.Controller) (enrichment.Snapshot, bool, error) {
	p := tea.NewProgram(newDetailsModel(ctrl))

	finalModel, err := p.Run()
	if err != nil {
		return ctrl.Snapshot(), false, fmt.Errorf("details UI error: %w", err)
	}

	m, ok := finalModel.(detailsModel)
	if !ok {
		return ctrl.Snapshot(), false, nil
	}
	return m.snap, m.quitting, nil
}
