// Package legacy reads the flat key-value snapshot daybar kept before
// it had a relational store, and migrates it into the database exactly
// once.
package legacy

import (
	"fmt"
	"os"
	"path/filepath"
)

// Keys of the two legacy blobs.
const (
	ConfigKey      = "daybar-config"
	CompletionsKey = "daybar-completions"
)

// KV is the host environment's persistent key-value capability.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// FileKV stores one JSON file per key under a root directory.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileKV) Set(key, value string) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("create kv directory: %w", err)
	}
	if err := os.WriteFile(f.path(key), []byte(value), 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Remove(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
