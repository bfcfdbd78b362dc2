package ticket

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("ticket not found")

// Store keeps rendered tickets on disk, one file per order id. Writes go
// through a temp file and a rename, so re-rendering an order atomically
// replaces its artifact and concurrent writers for different orders never
// touch each other's files.
type Store struct {
	dir string
}

// NewStore ensures the storage directory exists and returns the store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tickets directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Store(orderID int64, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "ticket_*.tmp")
	if err != nil {
		return fmt.Errorf("store ticket for order %d: %w", orderID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store ticket for order %d: %w", orderID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store ticket for order %d: %w", orderID, err)
	}

	if err := os.Rename(tmpName, s.path(orderID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store ticket for order %d: %w", orderID, err)
	}
	return nil
}

func (s *Store) Retrieve(orderID int64) ([]byte, error) {
	data, err := os.ReadFile(s.path(orderID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ticket for order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("read ticket for order %d: %w", orderID, err)
	}
	return data, nil
}

func (s *Store) path(orderID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("ticket_%d.pdf", orderID))
}
