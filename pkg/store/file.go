package store

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

// FileStore keeps each document in <dir>/<id>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeErr(err, "create store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Backend() string { return BackendFile }

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

func (s *FileStore) Get(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "read %s", id)
	}
	return data, nil
}

// Put writes through a temporary file and renames it into place.
func (s *FileStore) Put(_ context.Context, id string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+id+".*.tmp")
	if err != nil {
		return storeErr(err, "write %s", id)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return storeErr(err, "write %s", id)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return storeErr(err, "write %s", id)
	}
	if err := os.Rename(name, s.path(id)); err != nil {
		os.Remove(name)
		return storeErr(err, "write %s", id)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return notFound(id)
	}
	if err != nil {
		return storeErr(err, "delete %s", id)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storeErr(err, "list %s", s.dir)
	}
	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			ID:        strings.TrimSuffix(name, fileExt),
			Size:      int(fi.Size()),
			UpdatedAt: fi.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileStore) Close() error { return nil }
