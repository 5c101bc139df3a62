package components

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner is a loading indicator shown while a pre-flight step runs.
// It quits the program once the step reports back or the user cancels.
type Spinner struct {
	spinner  spinner.Model
	message  string
	cancel   key.Binding
	done     bool
	canceled bool
	success  bool
	result   string
	err      error
	styles   spinnerStyles
}

type spinnerStyles struct {
	Message lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

func defaultSpinnerStyles() spinnerStyles {
	return spinnerStyles{
		Message: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// NewSpinner creates a spinner showing message. Pressing a key bound to
// cancel stops the spinner early.
func NewSpinner(message string, cancel key.Binding) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return Spinner{
		spinner: s,
		message: message,
		cancel:  cancel,
		styles:  defaultSpinnerStyles(),
	}
}

// Init implements tea.Model.
func (s Spinner) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update implements tea.Model.
func (s Spinner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, s.cancel) {
			s.canceled = true
			return s, tea.Quit
		}
	case SpinnerDoneMsg:
		s.done = true
		s.success = msg.Success
		s.result = msg.Result
		s.err = msg.Err
		return s, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

// View implements tea.Model.
func (s Spinner) View() string {
	switch {
	case s.canceled:
		return s.styles.Error.Render("✗ "+s.message+": canceled") + "\n"
	case s.done && s.success:
		return s.styles.Success.Render("✓ "+s.message+": "+s.result) + "\n"
	case s.done:
		return s.styles.Error.Render("✗ "+s.message+": "+s.err.Error()) + "\n"
	}
	return s.spinner.View() + " " + s.styles.Message.Render(s.message)
}

// SpinnerDoneMsg signals that the spinner operation is complete.
type SpinnerDoneMsg struct {
	Success bool
	Result  string
	Err     error
}

// SpinnerDone creates a success message.
func SpinnerDone(result string) SpinnerDoneMsg {
	return SpinnerDoneMsg{Success: true, Result: result}
}

// SpinnerFailed creates a failure message.
func SpinnerFailed(err error) SpinnerDoneMsg {
	return SpinnerDoneMsg{Success: false, Err: err}
}

// IsDone returns true if the spinner is done.
func (s Spinner) IsDone() bool {
	return s.done
}

// Canceled returns true if the user canceled the spinner.
func (s Spinner) Canceled() bool {
	return s.canceled
}
