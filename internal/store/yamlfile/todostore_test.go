package yamlfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/nplusone/internal/core/todo"
)

func tempStore(t *testing.T) *TodoStore {
	t.Helper()
	return New(filepath.Join(t.TempDir(), ".nplusone-todo.yaml"))
}

func TestTodoStore(t *testing.T) {
	t.Run("absent file is empty store", func(t *testing.T) {
		store := tempStore(t)

		entries, err := store.Entries()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty file is empty store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todo.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		entries, err := New(path).Entries()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("malformed file fails with ErrMalformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todo.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

		_, err := New(path).Entries()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformed))
	})

	t.Run("add entry and look up", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "SELECT * FROM users WHERE id = ?", "a.rb:1", "spec/a_spec.rb"))

		ignored, err := store.Ignored("fp1")
		require.NoError(t, err)
		assert.True(t, ignored)

		ignored, err = store.Ignored("fp2")
		require.NoError(t, err)
		assert.False(t, ignored)

		entry, ok, err := store.FindEntry("fp1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "SELECT * FROM users WHERE id = ?", entry.Query)
		assert.False(t, entry.CreatedAt.IsZero())
		require.Len(t, entry.Locations, 1)
		assert.Equal(t, "a.rb:1", entry.Locations[0].Location)
		assert.Equal(t, "spec/a_spec.rb", entry.Locations[0].TestLocation)
	})

	t.Run("add entry dedup is idempotent", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q", "a.rb:1", "spec/a_spec.rb"))
		require.NoError(t, store.AddEntry("fp1", "q", "a.rb:1", "spec/a_spec.rb"))

		entry, ok, err := store.FindEntry("fp1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Len(t, entry.Locations, 1)
	})

	t.Run("same fingerprint collects multiple locations", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q", "a.rb:1", ""))
		require.NoError(t, store.AddEntry("fp1", "q", "b.rb:2", "spec/b_spec.rb"))

		entry, ok, err := store.FindEntry("fp1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, entry.Locations, 2)
		assert.Equal(t, "a.rb:1", entry.Locations[0].Location)
		assert.Equal(t, "b.rb:2", entry.Locations[1].Location)
	})

	t.Run("empty location creates entry without location records", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q", "", ""))

		entry, ok, err := store.FindEntry("fp1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, entry.Locations)
	})

	t.Run("fingerprints preserve insertion order", func(t *testing.T) {
		store := tempStore(t)

		for _, fp := range []string{"c", "a", "b"} {
			require.NoError(t, store.AddEntry(fp, "q", "loc-"+fp, ""))
		}

		fps, err := store.Fingerprints()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, fps)
	})

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todo.yaml")

		store := New(path)
		require.NoError(t, store.AddEntry("fp1", "SELECT * FROM users WHERE id = ?", "a.rb:1", "spec/a_spec.rb"))
		require.NoError(t, store.AddEntry("fp1", "SELECT * FROM users WHERE id = ?", "b.rb:2", ""))
		require.NoError(t, store.AddEntry("fp2", "SELECT * FROM posts WHERE user_id = ?", "c.rb:3", "spec/c_spec.rb"))
		require.NoError(t, store.Save())

		reloaded, err := New(path).Entries()
		require.NoError(t, err)
		require.Len(t, reloaded, 2)

		assert.Equal(t, "fp1", reloaded[0].Fingerprint)
		assert.Equal(t, []todo.LocationRecord{
			{Location: "a.rb:1", TestLocation: "spec/a_spec.rb"},
			{Location: "b.rb:2"},
		}, reloaded[0].Locations)

		assert.Equal(t, "fp2", reloaded[1].Fingerprint)
		assert.Equal(t, "SELECT * FROM posts WHERE user_id = ?", reloaded[1].Query)
		assert.False(t, reloaded[1].CreatedAt.IsZero())
	})

	t.Run("legacy flat location field is readable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todo.yaml")
		content := `- fingerprint: legacyfp
  query: SELECT * FROM users WHERE id = ?
  location: a.rb:1 -> b.rb:2
  created_at: 2024-01-15T10:30:00Z
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := New(path).Entries()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Len(t, entries[0].Locations, 1)
		assert.Equal(t, "a.rb:1 -> b.rb:2", entries[0].Locations[0].Location)
		assert.Empty(t, entries[0].Locations[0].TestLocation)
	})

	t.Run("clear then save persists empty set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todo.yaml")

		store := New(path)
		require.NoError(t, store.AddEntry("fp1", "q", "a.rb:1", ""))
		require.NoError(t, store.Save())

		store.Clear()
		require.NoError(t, store.Save())

		entries, err := New(path).Entries()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("entries returns defensive copies", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, store.AddEntry("fp1", "q", "a.rb:1", ""))

		entries, err := store.Entries()
		require.NoError(t, err)
		entries[0].Locations[0].Location = "mutated"

		again, err := store.Entries()
		require.NoError(t, err)
		assert.Equal(t, "a.rb:1", again[0].Locations[0].Location)
	})
}

func TestTestLocations(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.AddEntry("fp1", "q1", "a.rb:1", "spec/a_spec.rb"))
	require.NoError(t, store.AddEntry("fp2", "q2", "b.rb:2", "spec/b_spec.rb"))
	require.NoError(t, store.AddEntry("fp3", "q3", "c.rb:3", ""))

	set, err := store.TestLocations()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{
		"spec/a_spec.rb": {},
		"spec/b_spec.rb": {},
	}, set)
}

func TestFilterByTestLocations(t *testing.T) {
	t.Run("prunes resolved, keeps provenance-less", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q1", "a.rb:1", "spec/a"))
		require.NoError(t, store.AddEntry("fp2", "q2", "b.rb:2", ""))

		removed, err := store.FilterByTestLocations(
			map[DetectedKey]struct{}{},
			map[string]struct{}{"spec/a": {}},
		)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		fps, err := store.Fingerprints()
		require.NoError(t, err)
		assert.Equal(t, []string{"fp2"}, fps)
	})

	t.Run("keeps records whose test did not run", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q1", "a.rb:1", "spec/a"))

		removed, err := store.FilterByTestLocations(
			map[DetectedKey]struct{}{},
			map[string]struct{}{"spec/other": {}},
		)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)

		ignored, err := store.Ignored("fp1")
		require.NoError(t, err)
		assert.True(t, ignored)
	})

	t.Run("keeps re-detected records", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q1", "a.rb:1", "spec/a"))

		removed, err := store.FilterByTestLocations(
			map[DetectedKey]struct{}{{Fingerprint: "fp1", Location: "a.rb:1"}: {}},
			map[string]struct{}{"spec/a": {}},
		)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
	})

	t.Run("partial prune keeps entry with surviving locations", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q1", "a.rb:1", "spec/a"))
		require.NoError(t, store.AddEntry("fp1", "q1", "b.rb:2", "spec/b"))

		removed, err := store.FilterByTestLocations(
			map[DetectedKey]struct{}{},
			map[string]struct{}{"spec/a": {}},
		)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		entry, ok, err := store.FindEntry("fp1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, entry.Locations, 1)
		assert.Equal(t, "b.rb:2", entry.Locations[0].Location)
	})

	t.Run("returns removed location count not entry count", func(t *testing.T) {
		store := tempStore(t)

		require.NoError(t, store.AddEntry("fp1", "q1", "a.rb:1", "spec/a"))
		require.NoError(t, store.AddEntry("fp1", "q1", "b.rb:2", "spec/a"))

		removed, err := store.FilterByTestLocations(
			map[DetectedKey]struct{}{},
			map[string]struct{}{"spec/a": {}},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		ignored, err := store.Ignored("fp1")
		require.NoError(t, err)
		assert.False(t, ignored)
	})
}
