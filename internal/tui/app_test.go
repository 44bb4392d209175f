package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/brizzai/space/internal/storage"
	"github.com/brizzai/space/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	ctx := context.Background()
	s := storage.New(storage.NewMemoryDriver())
	require.NoError(t, s.SetItem(ctx, "sessions/a", map[string]string{"id": "a"}))
	require.NoError(t, s.SetItem(ctx, "sessions/b", map[string]string{"id": "b"}))
	require.NoError(t, s.SetItem(ctx, "other", 1))
	return s
}

// step applies msg and runs the resulting command once, returning its message
func step(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd == nil {
		return next.(AppModel), nil
	}
	return next.(AppModel), cmd()
}

func TestAppModel_LoadsKeys(t *testing.T) {
	m := NewAppModel(context.Background(), newTestStore(t), "sessions/")

	msg := m.Init()()
	loaded, ok := msg.(keysLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)

	want := []models.KeyItem{{Key: "sessions/a", Size: 10}, {Key: "sessions/b", Size: 10}}
	if diff := cmp.Diff(want, loaded.items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	m, _ = step(t, m, loaded)
	assert.Len(t, m.list.Items(), 2)
}

func TestAppModel_ShowValue(t *testing.T) {
	m := NewAppModel(context.Background(), newTestStore(t), "")
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	_, msg := step(t, m, OpenValueMsg{Key: "sessions/a"})
	loaded, ok := msg.(valueLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)
	assert.Equal(t, "{\n  \"id\": \"a\"\n}", loaded.body)

	m, _ = step(t, m, loaded)
	assert.Equal(t, "value", m.page)
	assert.Equal(t, "sessions/a", m.value.Key())
	assert.Contains(t, m.View(), `"id": "a"`)

	_, msg = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, BackToListMsg{}, msg)
	m, _ = step(t, m, msg)
	assert.Equal(t, "list", m.page)
}

func TestAppModel_MissingValue(t *testing.T) {
	m := NewAppModel(context.Background(), newTestStore(t), "")

	_, msg := step(t, m, OpenValueMsg{Key: "gone"})
	loaded := msg.(valueLoadedMsg)
	assert.Error(t, loaded.err)

	m, _ = step(t, m, loaded)
	assert.Equal(t, "list", m.page)
}

func TestAppModel_RemoveMarked(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := NewAppModel(ctx, store, "")
	m, _ = step(t, m, m.Init()())

	// mark the first key, then finish
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, []string{"other"}, m.list.Removed())

	_, msg := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	done, ok := msg.(DoneMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"other"}, done.Removed)

	_, msg = step(t, m, done)
	m, _ = step(t, m, msg)
	assert.True(t, m.IsFinished())
	assert.NoError(t, m.Err())
	assert.Equal(t, []string{"other"}, m.Removed())

	has, err := store.HasItem(ctx, "other")
	require.NoError(t, err)
	assert.False(t, has)
}

type failingStore struct{ Store }

func (failingStore) GetKeys(context.Context, string) ([]string, error) {
	return nil, errors.New("backend down")
}

func TestAppModel_LoadError(t *testing.T) {
	m := NewAppModel(context.Background(), failingStore{}, "")
	next, cmd := m.Update(m.Init()())

	assert.EqualError(t, next.(AppModel).Err(), "backend down")
	assert.Equal(t, tea.Quit(), cmd())
}

func TestKeyItem(t *testing.T) {
	item := models.KeyItem{Key: "sessions/a", Size: 12}
	assert.Equal(t, "sessions/a", item.Title())
	assert.Equal(t, "sessions/a", item.FilterValue())
	assert.Equal(t, "12 bytes", item.Description())

	removed := item.ToggleRemoved()
	assert.True(t, removed.IsRemoved)
	assert.False(t, item.IsRemoved)
	assert.Contains(t, removed.Description(), "Marked for removal")
}
