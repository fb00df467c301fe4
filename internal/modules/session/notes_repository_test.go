package session

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/pricemap/internal/database"
)

var notesDBCounter int

func newTestNotesRepo(t *testing.T) *NotesRepository {
	t.Helper()

	notesDBCounter++
	db, err := database.New(database.Config{
		Path:    fmt.Sprintf("file:notes_test_%d?mode=memory&cache=shared", notesDBCounter),
		Profile: database.ProfileStandard,
		Name:    "notes",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewNotesRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, repo.Init())
	return repo
}

func TestNotesRepository_GetMissingReturnsEmpty(t *testing.T) {
	repo := newTestNotesRepo(t)

	note, err := repo.Get(221)
	require.NoError(t, err)
	assert.Equal(t, "", note)
}

func TestNotesRepository_SetAndGet(t *testing.T) {
	repo := newTestNotesRepo(t)

	require.NoError(t, repo.Set(221, "Undercut by Pilot since Tuesday"))

	note, err := repo.Get(221)
	require.NoError(t, err)
	assert.Equal(t, "Undercut by Pilot since Tuesday", note)

	// Overwrite.
	require.NoError(t, repo.Set(221, "resolved"))
	note, err = repo.Get(221)
	require.NoError(t, err)
	assert.Equal(t, "resolved", note)
}

func TestNotesRepository_EmptyTextDeletes(t *testing.T) {
	repo := newTestNotesRepo(t)

	require.NoError(t, repo.Set(10, "watch this one"))
	require.NoError(t, repo.Set(10, ""))

	note, err := repo.Get(10)
	require.NoError(t, err)
	assert.Equal(t, "", note)

	all, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNotesRepository_All(t *testing.T) {
	repo := newTestNotesRepo(t)

	require.NoError(t, repo.Set(1, "a"))
	require.NoError(t, repo.Set(2, "b"))

	all, err := repo.All()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "a", 2: "b"}, all)
}
