package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelops/pricemap/internal/database"
)

// NotesRepository persists per-station operator notes, keyed by the stable
// station id so a note follows the station across snapshots.
type NotesRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewNotesRepository creates a notes repository over the given database.
func NewNotesRepository(db *database.DB, log zerolog.Logger) *NotesRepository {
	return &NotesRepository{
		db:  db,
		log: log.With().Str("component", "notes_repository").Logger(),
	}
}

// Init creates the notes table if it does not exist.
func (r *NotesRepository) Init() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS station_notes (
			station_id INTEGER PRIMARY KEY,
			note       TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create station_notes table: %w", err)
	}
	return nil
}

// Get returns a station's note, or the empty string when none exists.
func (r *NotesRepository) Get(stationID int) (string, error) {
	var note string
	err := r.db.Conn().QueryRow(
		`SELECT note FROM station_notes WHERE station_id = ?`, stationID,
	).Scan(&note)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read note for station %d: %w", stationID, err)
	}
	return note, nil
}

// Set stores a station's note. Empty text deletes the note.
func (r *NotesRepository) Set(stationID int, text string) error {
	if text == "" {
		if _, err := r.db.Exec(`DELETE FROM station_notes WHERE station_id = ?`, stationID); err != nil {
			return fmt.Errorf("failed to delete note for station %d: %w", stationID, err)
		}
		return nil
	}

	_, err := r.db.Exec(`
		INSERT INTO station_notes (station_id, note, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET note = excluded.note, updated_at = excluded.updated_at
	`, stationID, text, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store note for station %d: %w", stationID, err)
	}
	return nil
}

// All returns every stored note keyed by station id.
func (r *NotesRepository) All() (map[int]string, error) {
	rows, err := r.db.Conn().Query(`SELECT station_id, note FROM station_notes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[int]string)
	for rows.Next() {
		var id int
		var note string
		if err := rows.Scan(&id, &note); err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes[id] = note
	}
	return notes, rows.Err()
}
