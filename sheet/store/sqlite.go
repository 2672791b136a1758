package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/theimaginaryfoundation/charsheet/sheet"
)

// SQLiteStore keeps every chat's state as a JSON document in one table.
type SQLiteStore struct {
	conn *sqlx.DB
	now  func() time.Time
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_states (
		chat_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	_, err := s.conn.Exec(schema)
	return err
}

type chatStateRow struct {
	ChatID    string `db:"chat_id"`
	State     string `db:"state"`
	UpdatedAt int64  `db:"updated_at"`
}

func (s *SQLiteStore) Load(ctx context.Context, chatID string) (sheet.State, bool, error) {
	if err := checkChatID(chatID); err != nil {
		return sheet.State{}, false, err
	}
	var row chatStateRow
	err := s.conn.GetContext(ctx, &row, `SELECT chat_id, state, updated_at FROM chat_states WHERE chat_id = ?`, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sheet.State{}, false, nil
		}
		return sheet.State{}, false, fmt.Errorf("SQLiteStore.Load: query: %w", err)
	}
	var st sheet.State
	if err := json.Unmarshal([]byte(row.State), &st); err != nil {
		return sheet.State{}, false, fmt.Errorf("SQLiteStore.Load: unmarshal: %w", err)
	}
	return st, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, chatID string, st sheet.State) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("SQLiteStore.Save: marshal: %w", err)
	}
	_, err = s.conn.NamedExecContext(ctx, `
		INSERT INTO chat_states (chat_id, state, updated_at)
		VALUES (:chat_id, :state, :updated_at)
		ON CONFLICT(chat_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		chatStateRow{ChatID: chatID, State: string(b), UpdatedAt: s.now().Unix()})
	if err != nil {
		return fmt.Errorf("SQLiteStore.Save: upsert: %w", err)
	}
	return nil
}
