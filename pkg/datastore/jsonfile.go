package datastore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// Each store persists its whole collection as one JSON document, loaded
// wholesale and rewritten wholesale on every mutation. A missing file is an
// empty collection. A corrupt file is logged and treated as empty so a bad
// write degrades the pipeline instead of crashing it.
func loadCollection[T any](path string, log *zap.Logger) []T {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}
	}
	if err != nil {
		log.Error("reading collection file", zap.String("path", path), zap.Error(err))
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Error("corrupt collection file, starting empty", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	return items
}

// saveCollection rewrites the document through a temp file rename so
// readers never observe a partially written collection.
func saveCollection[T any](path string, items []T) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
