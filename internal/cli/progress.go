package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/storyshelf/internal/service"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// fetchEventMsg carries one progress event from the running fetch.
type fetchEventMsg service.ProgressEvent

// fetchDoneMsg carries the final result.
type fetchDoneMsg struct {
	result *service.FetchResult
	err    error
}

// fetchModel is the bubbletea model for a fetch run.
type fetchModel struct {
	source   string
	progress progress.Model
	theme    Theme

	pages    int
	total    int // 0 when the source is unbounded
	scored   int
	errs     int
	lastPage int

	done     bool
	quitting bool
	result   *service.FetchResult
	err      error
}

func newFetchModel(source string, totalPages int) fetchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return fetchModel{
		source:   source,
		progress: prog,
		theme:    defaultTheme,
		total:    totalPages,
	}
}

// Init returns the initial command.
func (m fetchModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case fetchEventMsg:
		if msg.Err != nil {
			m.errs++
			return m, nil
		}
		switch msg.Stage {
		case service.StagePage:
			m.pages++
			m.lastPage = msg.Page
		case service.StageScore:
			m.scored++
		}
		return m, nil

	case fetchDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m fetchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m fetchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[fetch %s]", m.source))

	var middle string
	if m.total > 0 {
		middle = m.progress.ViewAs(float64(m.pages) / float64(m.total))
		middle += fmt.Sprintf(" %d/%d pages", m.pages, m.total)
	} else {
		middle = fmt.Sprintf("page %d", m.lastPage)
	}
	if m.scored > 0 {
		middle += fmt.Sprintf(", %d scored", m.scored)
	}
	if m.errs > 0 {
		middle += m.theme.errorStyle().Render(fmt.Sprintf(", %d errors", m.errs))
	}

	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop")
	return fmt.Sprintf("%s %s\n%s\n", status, middle, hint)
}

func (m fetchModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Fetch failed: %s\n", m.err))
	}
	if m.result == nil {
		return ""
	}

	r := m.result
	output := m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	output += fmt.Sprintf("  Pages fetched:   %d\n", r.Pages)
	output += fmt.Sprintf("  Stories listed:  %d\n", r.Stories)
	if r.Scored > 0 {
		output += fmt.Sprintf("  Stories scored:  %d\n", r.Scored)
	}
	if len(r.Errors) > 0 {
		output += m.theme.errorStyle().Render(fmt.Sprintf("\nWarnings (%d):\n", len(r.Errors)))
		for _, e := range r.Errors {
			output += fmt.Sprintf("  • %s\n", e)
		}
	}
	return output
}
