package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// recordDir stores one JSON document per record under root/<name>/<id>.json.
type recordDir[T any] struct {
	dir string
}

func newRecordDir[T any](root, name string) recordDir[T] {
	return recordDir[T]{dir: path.Join(root, name)}
}

func (d recordDir[T]) get(id string) (*T, error) {
	filePath := filepath.Clean(path.Join(d.dir, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filePath, err)
	}

	return &record, nil
}

func (d recordDir[T]) all() ([]*T, error) {
	jsonFiles, err := fs.Glob(os.DirFS(d.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.dir, err)
	}

	records := make([]*T, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		record, err := d.get(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}

func (d recordDir[T]) put(id string, record *T) error {
	err := os.MkdirAll(d.dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", d.dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return os.WriteFile(path.Join(d.dir, id+".json"), data, 0600)
}

// touch sets created/updated timestamps the way every repository does.
func touch(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}

	*updatedAt = now
}

// page sorts and slices an in-memory listing.
func page[T any](records []*T, offset, limit int, less func(a, b *T) bool, desc bool) ([]*T, bool) {
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}

		return less(records[i], records[j])
	})

	if offset >= len(records) {
		return make([]*T, 0), false
	}

	end := min(offset+limit, len(records))

	return records[offset:end], end < len(records)
}
