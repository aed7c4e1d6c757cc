// Package storage provides the filesystem backends batch tasks read scalar
// streams from and write descriptor outputs to. Paths are always relative
// to the backend root.
package storage

import (
	"fmt"
	"io"
	"time"
)

// Entry describes one file or directory in a listing.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	Path    string // root-relative path
}

// FileSystem is the access contract shared by the local, SFTP and FTP
// backends. Open and Create also satisfy filemeta.Opener, so descriptors
// resolve directly against any backend.
type FileSystem interface {
	Init() error
	Close() error
	// List returns the entries of one directory (non-recursive).
	List(path string) ([]Entry, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	MkdirAll(path string) error
	Stat(path string) (*Entry, error)
	Remove(path string) error
}

// Auth carries the credentials remote backends dial with.
type Auth struct {
	Host     string
	Port     int
	User     string
	Password string
}

// New constructs and initializes a backend by kind: "local", "sftp" or
// "ftp". The remote kinds require auth.
func New(kind, root string, auth *Auth) (FileSystem, error) {
	switch kind {
	case "local", "":
		fs := &Local{Root: root}
		return fs, fs.Init()
	case "sftp":
		if auth == nil {
			return nil, fmt.Errorf("auth required for sftp")
		}
		fs := &SFTP{Auth: *auth, Root: root}
		return fs, fs.Init()
	case "ftp":
		if auth == nil {
			return nil, fmt.Errorf("auth required for ftp")
		}
		fs := &FTP{Auth: *auth, Root: root}
		return fs, fs.Init()
	}
	return nil, fmt.Errorf("unknown storage kind: %s", kind)
}
