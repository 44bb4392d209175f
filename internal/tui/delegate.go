package tui

import (
	"github.com/brizzai/space/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// newItemDelegate returns a list.DefaultDelegate that toggles removal marks
func newItemDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(models.KeyItem)
		if !ok {
			return nil
		}

		if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.remove) {
			updated := item.ToggleRemoved()
			m.SetItem(m.Index(), updated)
			if updated.IsRemoved {
				return m.NewStatusMessage(statusMessageStyle("Marked " + item.Key + " for removal"))
			}
			return m.NewStatusMessage(statusMessageStyle("Kept " + item.Key))
		}
		return nil
	}

	help := []key.Binding{keys.remove}

	d.ShortHelpFunc = func() []key.Binding {
		return help
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}

	return d
}

// delegateKeyMap holds key bindings for list item actions.
type delegateKeyMap struct {
	remove key.Binding
}

// newDelegateKeyMap creates a new delegateKeyMap with default bindings.
func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		remove: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "Mark for removal"),
		),
	}
}
