package storage

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTP serves files from a directory on an SFTP server.
type SFTP struct {
	Auth Auth
	Root string

	client  *sftp.Client
	sshConn *ssh.Client
}

func (s *SFTP) Init() error {
	config := &ssh.ClientConfig{
		User: s.Auth.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(s.Auth.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", s.Auth.Host, s.Auth.Port)
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return err
	}
	s.sshConn = conn

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return err
	}
	s.client = client
	return nil
}

func (s *SFTP) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	if s.sshConn != nil {
		s.sshConn.Close()
	}
	return nil
}

func (s *SFTP) List(relPath string) ([]Entry, error) {
	infos, err := s.client.ReadDir(path.Join(s.Root, relPath))
	if err != nil {
		return nil, err
	}

	var files []Entry
	for _, info := range infos {
		files = append(files, Entry{
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
			Path:    path.Join(relPath, info.Name()),
		})
	}
	return files, nil
}

func (s *SFTP) Open(relPath string) (io.ReadCloser, error) {
	return s.client.Open(path.Join(s.Root, relPath))
}

// Create makes parent directories as needed, matching the local backend.
func (s *SFTP) Create(relPath string) (io.WriteCloser, error) {
	full := path.Join(s.Root, relPath)
	if dir := path.Dir(full); dir != "." && dir != "/" {
		if err := s.client.MkdirAll(dir); err != nil {
			return nil, err
		}
	}
	return s.client.Create(full)
}

func (s *SFTP) MkdirAll(relPath string) error {
	return s.client.MkdirAll(path.Join(s.Root, relPath))
}

func (s *SFTP) Stat(relPath string) (*Entry, error) {
	info, err := s.client.Stat(path.Join(s.Root, relPath))
	if err != nil {
		return nil, err
	}
	return &Entry{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Path:    relPath,
	}, nil
}

func (s *SFTP) Remove(relPath string) error {
	return s.client.Remove(path.Join(s.Root, relPath))
}
