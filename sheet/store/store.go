// Package store persists one character sheet per chat.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/theimaginaryfoundation/charsheet/sheet"
)

// Store loads and saves per-chat state. Load reports found=false, with no error, when the
// chat has nothing persisted yet.
type Store interface {
	Load(ctx context.Context, chatID string) (state sheet.State, found bool, err error)
	Save(ctx context.Context, chatID string, state sheet.State) error
	Close() error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the backend named by kind. For "file" dsn is a directory; for "sqlite" it is
// a database path.
func Open(kind, dsn string) (Store, error) {
	if dsn == "" {
		return nil, errors.New("store: empty dsn")
	}
	switch kind {
	case KindFile:
		return NewFileStore(dsn), nil
	case KindSQLite:
		return OpenSQLite(dsn)
	}
	return nil, fmt.Errorf("store: unknown kind %q", kind)
}

var chatIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidChatID reports whether id is safe to use as a file name and key.
func ValidChatID(id string) bool {
	return chatIDPattern.MatchString(id) && id != "." && id != ".."
}

func checkChatID(id string) error {
	if !ValidChatID(id) {
		return fmt.Errorf("store: invalid chat id %q", id)
	}
	return nil
}
