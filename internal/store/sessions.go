package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vikasvdk5/WestBay/internal/session"
)

// SessionRow is the lightweight listing view of a checkpoint.
type SessionRow struct {
	ID        string    `json:"session_id"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveSession upserts a full checkpoint of the session state.
func (s *Store) SaveSession(st *session.State) error {
	data, err := session.Encode(st)
	if err != nil {
		return err
	}
	snap := st.TakeSnapshot()

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, stage, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stage = excluded.stage,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		snap.SessionID, string(snap.Stage), string(data), snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession reloads a checkpoint. Returns nil without error when the
// session is unknown.
func (s *Store) GetSession(id string) (*session.State, error) {
	var raw string
	err := s.db.QueryRow(`SELECT state FROM sessions WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session.Decode([]byte(raw))
}

// ListSessions returns all checkpoints, most recently updated first.
func (s *Store) ListSessions() ([]SessionRow, error) {
	rows, err := s.db.Query(`SELECT id, stage, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		if err := rows.Scan(&r.ID, &r.Stage, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListUnfinishedSessions returns checkpoints whose stage is non-terminal,
// used at startup to settle sessions orphaned by a crash.
func (s *Store) ListUnfinishedSessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM sessions WHERE stage NOT IN (?, ?)`,
		string(session.StageCompleted), string(session.StageFailed))
	if err != nil {
		return nil, fmt.Errorf("list unfinished sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteSession removes one checkpoint.
func (s *Store) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeSessionsOlderThan deletes checkpoints whose last update is older
// than the cutoff, regardless of stage. Returns the number removed.
func (s *Store) PurgeSessionsOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
