package models

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// KeyItem is one stored key in the browser list
// Implements list.Item
type KeyItem struct {
	Key       string
	Size      int
	IsRemoved bool
}

func (i KeyItem) Title() string {
	return i.Key
}

func (i KeyItem) Description() string {
	if i.IsRemoved {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Render("[Marked for removal]")
	}
	return fmt.Sprintf("%d bytes", i.Size)
}

func (i KeyItem) ToggleRemoved() KeyItem {
	i.IsRemoved = !i.IsRemoved
	return i
}

func (i KeyItem) FilterValue() string {
	return i.Key
}
