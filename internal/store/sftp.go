package store

import (
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Compile-time interface check.
var _ FS = (*SFTPFS)(nil)

// SFTPFS serves a directory on a remote host as the store.
type SFTPFS struct {
	client *sftp.Client
	ssh    *ssh.Client // nil when the caller owns the transport
	root   string
}

// NewSFTPFS opens an SFTP session on sshClient rooted at root. Close
// releases both the session and the SSH connection.
func NewSFTPFS(sshClient *ssh.Client, root string) (*SFTPFS, error) {
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	return &SFTPFS{client: client, ssh: sshClient, root: root}, nil
}

// NewSFTPFSClient wraps an established SFTP client.
func NewSFTPFSClient(client *sftp.Client, root string) *SFTPFS {
	return &SFTPFS{client: client, root: root}
}

func (s *SFTPFS) abs(name string) (string, string, error) {
	clean, err := Clean(name)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", name, err)
	}
	return clean, path.Join(s.root, clean), nil
}

func (s *SFTPFS) Stat(name string) (Entry, error) {
	clean, absPath, err := s.abs(name)
	if err != nil {
		return Entry{}, err
	}
	info, err := s.client.Lstat(absPath)
	if err != nil {
		return Entry{}, err
	}
	return infoToEntry(info, clean), nil
}

//nolint:ireturn // implements FS interface
func (s *SFTPFS) Create(name string) (WriteFile, error) {
	_, absPath, err := s.abs(name)
	if err != nil {
		return nil, err
	}
	f, err := s.client.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("sftp create %s: %w", name, err)
	}
	return f, nil
}

//nolint:ireturn // implements FS interface
func (s *SFTPFS) Open(name string) (ReadFile, error) {
	_, absPath, err := s.abs(name)
	if err != nil {
		return nil, err
	}
	f, err := s.client.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("sftp open %s: %w", name, err)
	}
	return f, nil
}

func (s *SFTPFS) Remove(name string) error {
	_, absPath, err := s.abs(name)
	if err != nil {
		return err
	}
	return s.client.Remove(absPath)
}

func (s *SFTPFS) ReadDir(name string) ([]DirEntry, error) {
	_, absPath, err := s.abs(name)
	if err != nil {
		return nil, err
	}
	infos, err := s.client.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("sftp readdir %s: %w", name, err)
	}
	entries := make([]DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, DirEntry{Name: info.Name(), IsDir: info.IsDir()})
	}
	slices.SortFunc(entries, func(a, b DirEntry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// SpaceInfo uses the statvfs@openssh.com extension; servers without it
// return an error.
func (s *SFTPFS) SpaceInfo() (uint64, uint64, error) {
	vfs, err := s.client.StatVFS(s.root)
	if err != nil {
		return 0, 0, fmt.Errorf("sftp statvfs %s: %w", s.root, err)
	}
	total := vfs.TotalSpace()
	free := vfs.FreeSpace()
	if free > total {
		free = total
	}
	return total, total - free, nil
}

func (s *SFTPFS) Close() error {
	err := s.client.Close()
	if s.ssh != nil {
		if sshErr := s.ssh.Close(); sshErr != nil && err == nil {
			err = sshErr
		}
	}
	return err
}
