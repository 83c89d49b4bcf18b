package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Secret is an encrypted credential for an external collaborator (API
// keys for the researcher workers). Value and Nonce are vault ciphertext.
type Secret struct {
	Name      string    `json:"name"`
	Value     []byte    `json:"-"`
	Nonce     []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveSecret(name string, value, nonce []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO secrets (name, value, nonce) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, nonce = excluded.nonce`,
		name, value, nonce)
	if err != nil {
		return fmt.Errorf("save secret: %w", err)
	}
	return nil
}

func (s *Store) GetSecret(name string) (*Secret, error) {
	sec := &Secret{}
	err := s.db.QueryRow(`SELECT name, value, nonce, created_at FROM secrets WHERE name = ?`, name).
		Scan(&sec.Name, &sec.Value, &sec.Nonce, &sec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get secret: %w", err)
	}
	return sec, nil
}

func (s *Store) ListSecretNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM secrets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan secret name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Store) DeleteSecret(name string) error {
	if _, err := s.db.Exec(`DELETE FROM secrets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}
	return nil
}
