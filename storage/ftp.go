package storage

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTP serves files from a directory on an FTP server.
type FTP struct {
	Auth Auth
	Root string

	conn *ftp.ServerConn
}

func (f *FTP) Init() error {
	addr := fmt.Sprintf("%s:%d", f.Auth.Host, f.Auth.Port)
	c, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return err
	}
	if err := c.Login(f.Auth.User, f.Auth.Password); err != nil {
		c.Quit()
		return err
	}
	f.conn = c
	return nil
}

func (f *FTP) Close() error {
	if f.conn != nil {
		return f.conn.Quit()
	}
	return nil
}

func (f *FTP) List(relPath string) ([]Entry, error) {
	entries, err := f.conn.List(path.Join(f.Root, relPath))
	if err != nil {
		return nil, err
	}

	var files []Entry
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		files = append(files, Entry{
			Name:    entry.Name,
			Size:    int64(entry.Size),
			ModTime: entry.Time,
			IsDir:   entry.Type == ftp.EntryTypeFolder,
			Path:    path.Join(relPath, entry.Name),
		})
	}
	return files, nil
}

func (f *FTP) Open(relPath string) (io.ReadCloser, error) {
	return f.conn.Retr(path.Join(f.Root, relPath))
}

// Create returns the write side of a pipe feeding STOR, since the FTP
// client wants a reader while the FileSystem contract hands out a writer.
// Write errors surface on Close.
func (f *FTP) Create(relPath string) (io.WriteCloser, error) {
	full := path.Join(f.Root, relPath)
	if dir := path.Dir(full); dir != "." && dir != "/" {
		f.mkdirAllFull(dir)
	}

	r, w := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := f.conn.Stor(full, r)
		if err != nil {
			r.CloseWithError(err)
		} else {
			r.Close()
		}
		done <- err
	}()
	return &ftpUpload{w: w, done: done}, nil
}

type ftpUpload struct {
	w    *io.PipeWriter
	done chan error
}

func (u *ftpUpload) Write(p []byte) (int, error) { return u.w.Write(p) }

func (u *ftpUpload) Close() error {
	if err := u.w.Close(); err != nil {
		return err
	}
	return <-u.done
}

// MkdirAll creates each path component in turn. MKD on an existing
// directory is ignored, since FTP offers no direct way to tell "already
// exists" apart from other failures.
func (f *FTP) MkdirAll(relPath string) error {
	f.mkdirAllFull(path.Join(f.Root, relPath))
	return nil
}

func (f *FTP) mkdirAllFull(full string) {
	var dirs []string
	for curr := full; curr != "." && curr != "/" && curr != ""; curr = path.Dir(curr) {
		dirs = append(dirs, curr)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		f.conn.MakeDir(dirs[i])
	}
}

// Stat lists the parent directory, the only portable way to stat over FTP.
func (f *FTP) Stat(relPath string) (*Entry, error) {
	full := path.Join(f.Root, relPath)
	entries, err := f.conn.List(path.Dir(full))
	if err != nil {
		return nil, err
	}

	name := path.Base(full)
	for _, entry := range entries {
		if entry.Name == name {
			return &Entry{
				Name:    entry.Name,
				Size:    int64(entry.Size),
				ModTime: entry.Time,
				IsDir:   entry.Type == ftp.EntryTypeFolder,
				Path:    relPath,
			}, nil
		}
	}
	return nil, fmt.Errorf("file not found: %s", relPath)
}

func (f *FTP) Remove(relPath string) error {
	return f.conn.Delete(path.Join(f.Root, relPath))
}
