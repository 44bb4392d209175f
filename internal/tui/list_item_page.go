package tui

import (
	"github.com/brizzai/space/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// listKeyMap holds key bindings for the list actions.
type listKeyMap struct {
	open   key.Binding
	finish key.Binding
	quit   key.Binding
}

// OpenValueMsg asks for the value of Key to be shown
type OpenValueMsg struct {
	Key string
}

// DoneMsg carries the keys marked for removal when the user finishes
type DoneMsg struct {
	Removed []string
}

// newListKeyMap creates a new listKeyMap with default bindings.
func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Show value"),
		),
		finish: key.NewBinding(
			key.WithKeys("F", "f"),
			key.WithHelp("F", "Apply removals and quit"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// KeyListModel lists stored keys
type KeyListModel struct {
	list list.Model
	keys *listKeyMap
}

// NewKeyListModel creates the list page titled with the browsed prefix
func NewKeyListModel(title string) KeyListModel {
	listKeys := newListKeyMap()
	delegate := newItemDelegate(newDelegateKeyMap())

	l := list.New(nil, delegate, 0, 0)
	l.Title = titleStyle.Render(title)
	l.SetShowFilter(true)

	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			listKeys.open,
			listKeys.finish,
			listKeys.quit,
		}
	}
	return KeyListModel{list: l, keys: listKeys}
}

// Init returns the initial command for the list model.
func (m KeyListModel) Init() tea.Cmd {
	return nil
}

// SetKeys replaces the listed items
func (m *KeyListModel) SetKeys(items []models.KeyItem) tea.Cmd {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}
	return m.list.SetItems(listItems)
}

// Update handles messages for the list
func (m KeyListModel) Update(msg tea.Msg) (KeyListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// while typing a filter every key belongs to the filter input
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			if item, ok := m.list.SelectedItem().(models.KeyItem); ok {
				return m, func() tea.Msg { return OpenValueMsg{Key: item.Key} }
			}
			return m, nil
		case key.Matches(msg, m.keys.finish):
			removed := m.Removed()
			return m, func() tea.Msg { return DoneMsg{Removed: removed} }
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list
func (m KeyListModel) View() string {
	return docStyle.Render(m.list.View())
}

// NewStatusMessage shows msg below the list
func (m *KeyListModel) NewStatusMessage(msg string) tea.Cmd {
	return m.list.NewStatusMessage(msg)
}

// Items returns every item, filtered or not
func (m KeyListModel) Items() []models.KeyItem {
	items := m.list.Items()
	result := make([]models.KeyItem, len(items))
	for i, item := range items {
		result[i] = item.(models.KeyItem)
	}
	return result
}

// Removed returns the keys marked for removal
func (m KeyListModel) Removed() []string {
	var removed []string
	for _, item := range m.Items() {
		if item.IsRemoved {
			removed = append(removed, item.Key)
		}
	}
	return removed
}
