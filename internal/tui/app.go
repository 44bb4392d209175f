// Package tui is an interactive browser for the key/value store.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/space/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Store is the part of storage.Storage the browser uses
type Store interface {
	GetKeys(ctx context.Context, base string) ([]string, error)
	GetItem(ctx context.Context, key string, out any) (bool, error)
	RemoveItem(ctx context.Context, key string) error
}

type keysLoadedMsg struct {
	items []models.KeyItem
	err   error
}

type valueLoadedMsg struct {
	key  string
	body string
	err  error
}

type removedMsg struct {
	removed []string
	err     error
}

// AppModel is the main application model that manages page switching
type AppModel struct {
	ctx    context.Context
	store  Store
	prefix string

	list   KeyListModel
	value  ValueView
	page   string // "list" or "value"
	width  int
	height int

	removed  []string
	err      error
	finished bool
}

// NewAppModel creates a browser over the keys of store below prefix
func NewAppModel(ctx context.Context, store Store, prefix string) AppModel {
	title := "space keys"
	if prefix != "" {
		title += " · " + prefix
	}
	return AppModel{
		ctx:    ctx,
		store:  store,
		prefix: prefix,
		list:   NewKeyListModel(title),
		page:   "list",
	}
}

// Init loads the key list
func (m AppModel) Init() tea.Cmd {
	return loadKeys(m.ctx, m.store, m.prefix)
}

// Update handles app-level messages and delegates to the appropriate page model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case keysLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		return m, m.list.SetKeys(msg.items)

	case OpenValueMsg:
		return m, loadValue(m.ctx, m.store, msg.Key)

	case valueLoadedMsg:
		if msg.err != nil {
			return m, m.list.NewStatusMessage(errorMessageStyle(msg.err.Error()))
		}
		m.value = NewValueView(msg.key, msg.body, m.width, m.height)
		m.page = "value"
		return m, m.value.Init()

	case BackToListMsg:
		m.page = "list"
		return m, nil

	case DoneMsg:
		return m, removeKeys(m.ctx, m.store, msg.Removed)

	case removedMsg:
		m.removed = msg.removed
		m.err = msg.err
		m.finished = msg.err == nil
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		var listCmd, valueCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		m.value, valueCmd = m.value.Update(msg)
		return m, tea.Batch(listCmd, valueCmd)
	}

	// Delegate message to the active page
	var cmd tea.Cmd
	switch m.page {
	case "value":
		m.value, cmd = m.value.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// View renders the active page
func (m AppModel) View() string {
	if m.page == "value" {
		return docStyle.Render(m.value.View())
	}
	return m.list.View()
}

// Removed returns the keys that were removed when the user finished
func (m AppModel) Removed() []string {
	return m.removed
}

// Err returns the error that stopped the browser, if any
func (m AppModel) Err() error {
	return m.err
}

// IsFinished reports whether the user applied their removals
func (m AppModel) IsFinished() bool {
	return m.finished
}

func loadKeys(ctx context.Context, store Store, prefix string) tea.Cmd {
	return func() tea.Msg {
		keys, err := store.GetKeys(ctx, prefix)
		if err != nil {
			return keysLoadedMsg{err: err}
		}

		items := make([]models.KeyItem, 0, len(keys))
		for _, key := range keys {
			var raw json.RawMessage
			if _, err := store.GetItem(ctx, key, &raw); err != nil {
				return keysLoadedMsg{err: err}
			}
			items = append(items, models.KeyItem{Key: key, Size: len(raw)})
		}
		return keysLoadedMsg{items: items}
	}
}

func loadValue(ctx context.Context, store Store, key string) tea.Cmd {
	return func() tea.Msg {
		var raw json.RawMessage
		ok, err := store.GetItem(ctx, key, &raw)
		if err != nil {
			return valueLoadedMsg{key: key, err: err}
		}
		if !ok {
			return valueLoadedMsg{key: key, err: fmt.Errorf("%s no longer exists", key)}
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return valueLoadedMsg{key: key, err: err}
		}
		return valueLoadedMsg{key: key, body: pretty.String()}
	}
}

func removeKeys(ctx context.Context, store Store, keys []string) tea.Cmd {
	return func() tea.Msg {
		var errs []error
		removed := make([]string, 0, len(keys))
		for _, key := range keys {
			if err := store.RemoveItem(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			removed = append(removed, key)
		}
		return removedMsg{removed: removed, err: errors.Join(errs...)}
	}
}
