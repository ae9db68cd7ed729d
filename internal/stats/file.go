package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const DefaultFile = "data.json"

// FileBackend keeps the document as a JSON file. Writes go to a temp file
// in the same directory which then replaces the target by rename.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) (*FileBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultFile
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("stats dir: %w", err)
	}
	return &FileBackend{path: path}, nil
}

func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) Load(ctx context.Context) (Document, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.createEmpty(); err != nil {
			return nil, err
		}
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return decodeDocument(raw)
}

func (f *FileBackend) Save(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	tmp, err := f.writeTemp(raw)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	syncDir(filepath.Dir(f.path))
	return nil
}

func (f *FileBackend) Close() error { return nil }

// createEmpty publishes "{}" with a hard link so an existing document is
// never overwritten and readers see either no file or a complete one.
func (f *FileBackend) createEmpty() error {
	tmp, err := f.writeTemp([]byte("{}"))
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if err := os.Link(tmp, f.path); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create %s: %w", f.path, err)
	}
	return nil
}

func (f *FileBackend) writeTemp(raw []byte) (string, error) {
	dir, base := filepath.Split(f.path)
	if dir == "" {
		dir = "."
	}
	tf, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	name := tf.Name()
	fail := func(err error) (string, error) {
		_ = tf.Close()
		_ = os.Remove(name)
		return "", err
	}
	if _, err := tf.Write(raw); err != nil {
		return fail(fmt.Errorf("write temp: %w", err))
	}
	if err := tf.Sync(); err != nil {
		return fail(fmt.Errorf("sync temp: %w", err))
	}
	if err := tf.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp: %w", err)
	}
	return name, nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func encodeDocument(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	return raw, nil
}

func decodeDocument(raw []byte) (Document, error) {
	doc := Document{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return doc, nil
}
