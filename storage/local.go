package storage

import (
	"io"
	"os"
	"path/filepath"
)

// Local serves files from a directory on the host.
type Local struct {
	Root string
}

func (l *Local) Init() error {
	return os.MkdirAll(l.Root, 0755)
}

func (l *Local) Close() error { return nil }

func (l *Local) List(path string) ([]Entry, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, path))
	if err != nil {
		return nil, err
	}

	var files []Entry
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, Entry{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   entry.IsDir(),
			Path:    filepath.ToSlash(filepath.Join(path, entry.Name())),
		})
	}
	return files, nil
}

func (l *Local) Open(path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.Root, path))
}

// Create makes parent directories as needed, so a descriptor pattern like
// "out/%.dat" works against a fresh root.
func (l *Local) Create(path string) (io.WriteCloser, error) {
	full := filepath.Join(l.Root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

func (l *Local) MkdirAll(path string) error {
	return os.MkdirAll(filepath.Join(l.Root, path), 0755)
}

func (l *Local) Stat(path string) (*Entry, error) {
	info, err := os.Stat(filepath.Join(l.Root, path))
	if err != nil {
		return nil, err
	}
	return &Entry{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Path:    filepath.ToSlash(path),
	}, nil
}

func (l *Local) Remove(path string) error {
	return os.Remove(filepath.Join(l.Root, path))
}
