package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/theimaginaryfoundation/charsheet/sheet"
	"github.com/theimaginaryfoundation/charsheet/sheet/fileutils"
)

// FileStore keeps each chat's state in <Dir>/<chatID>.json.
type FileStore struct {
	Dir    string
	Pretty bool
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, Pretty: true}
}

// Path returns the file backing chatID.
func (s *FileStore) Path(chatID string) string {
	return filepath.Join(s.Dir, chatID+".json")
}

func (s *FileStore) Load(ctx context.Context, chatID string) (sheet.State, bool, error) {
	if err := checkChatID(chatID); err != nil {
		return sheet.State{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return sheet.State{}, false, err
	}
	b, err := os.ReadFile(s.Path(chatID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sheet.State{}, false, nil
		}
		return sheet.State{}, false, fmt.Errorf("FileStore.Load: read file: %w", err)
	}
	var st sheet.State
	if err := json.Unmarshal(b, &st); err != nil {
		return sheet.State{}, false, fmt.Errorf("FileStore.Load: unmarshal: %w", err)
	}
	return st, true, nil
}

func (s *FileStore) Save(ctx context.Context, chatID string, st sheet.State) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileutils.WriteJSONFileAtomic(s.Path(chatID), st, s.Pretty); err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
