package cache

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SlotStore is a durable key-value slot per cache. Read returns (nil, nil)
// for an absent slot; a corrupt slot is the deserializer's problem, not the
// store's. Implementations must keep slots independent of each other.
type SlotStore interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, data []byte) error
	Delete(ctx context.Context, slot string) error
}

// FileSlotStore keeps one JSON file per slot under a local directory.
type FileSlotStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileSlotStore(dir string, logger *zap.Logger) (*FileSlotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileSlotStore{dir: dir, logger: logger}, nil
}

func (fs *FileSlotStore) path(slot string) string {
	return filepath.Join(fs.dir, slot+".json")
}

func (fs *FileSlotStore) Read(_ context.Context, slot string) ([]byte, error) {
	data, err := os.ReadFile(fs.path(slot))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (fs *FileSlotStore) Write(_ context.Context, slot string, data []byte) error {
	// Write-then-rename so a crash mid-write can't corrupt the slot.
	tmp := fs.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path(slot))
}

func (fs *FileSlotStore) Delete(_ context.Context, slot string) error {
	err := os.Remove(fs.path(slot))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
