package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// BackToListMsg returns from the value view to the key list
type BackToListMsg struct{}

// ValueView shows one pretty printed value in a scrollable viewport
type ValueView struct {
	key      string
	viewport viewport.Model
	back     key.Binding
}

// NewValueView creates a view of body sized for the terminal
func NewValueView(storageKey, body string, width, height int) ValueView {
	vp := viewport.New(width, max(height-4, 1))
	vp.SetContent(body)

	return ValueView{
		key:      storageKey,
		viewport: vp,
		back: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "Back"),
		),
	}
}

// Init returns the initial command for the view
func (m ValueView) Init() tea.Cmd {
	return nil
}

// Update scrolls the viewport and handles going back
func (m ValueView) Update(msg tea.Msg) (ValueView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if key.Matches(msg, m.back) {
			return m, func() tea.Msg { return BackToListMsg{} }
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Key is the storage key being shown
func (m ValueView) Key() string {
	return m.key
}

// View renders the value with its key as header
func (m ValueView) View() string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		valueHeaderStyle.Render(m.key),
		m.viewport.View(),
		"(esc to go back)",
	)
}
