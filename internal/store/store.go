// Package store implements the flat file namespace backing a flatstore
// server: name validation, directory listing and locked file access rooted
// at a single storage directory.
//
// Concurrency control is a whole-file advisory lock taken on the open handle
// for the duration of a single operation (shared for reads, exclusive for
// writes). The discipline is cooperative: every code path touching file
// content must go through this package so the lock is always acquired before
// I/O. There is no cross-file transaction and no namespace-wide lock.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidName rejects client-supplied names that could escape the
	// storage root or cannot be expressed on a protocol line.
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotRegular is returned when a read targets something other than a
	// regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrLock wraps advisory lock acquisition failures.
	ErrLock = errors.New("cannot lock file")
)

// Resolve validates a client-supplied name and joins it under root.
//
// Names containing "..", path separators or line terminators are rejected
// before any filesystem access, as is "." — filepath.Join would clean it to
// root itself, aiming operations at the storage directory instead of a file
// in it. A bare name is always treated as relative, so the result cannot
// escape root. This is the sole boundary enforcing the flat-namespace
// invariant.
func Resolve(root, name string) (string, error) {
	if name == "" || name == "." ||
		strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) ||
		strings.ContainsAny(name, "\r\n") {
		return "", ErrInvalidName
	}
	return filepath.Join(root, name), nil
}

// Entry describes one stored file.
type Entry struct {
	Name string
	Size int64
}

// Store provides file operations scoped to a single storage root.
type Store struct {
	root string
}

// New creates the storage root if needed and returns a Store bound to it.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the storage root path.
func (s *Store) Root() string {
	return s.root
}

// List enumerates the regular files in the storage root with their sizes.
// The listing is a best-effort snapshot: entries created or removed by
// concurrent sessions during the scan may or may not appear.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Removed between scan and stat; skip.
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size()})
	}
	return entries, nil
}

// File is an open stored file holding an advisory lock. Close releases the
// lock and the handle; it is safe on every exit path.
type File struct {
	f    *os.File
	size int64
}

func (f *File) Read(p []byte) (int, error)  { return f.f.Read(p) }
func (f *File) Write(p []byte) (int, error) { return f.f.Write(p) }

// Size returns the file size captured at open time.
func (f *File) Size() int64 { return f.size }

// Sync flushes written data to durable storage.
func (f *File) Sync() error { return f.f.Sync() }

// Sys exposes the underlying *os.File so the transfer path can hand it to
// the kernel for file-to-socket copies.
func (f *File) Sys() *os.File { return f.f }

// Close releases the advisory lock and closes the handle.
func (f *File) Close() error {
	_ = unlockFile(f.f)
	return f.f.Close()
}

// OpenRead opens name for reading under a shared advisory lock and verifies
// it is a regular file. Acquisition blocks until any exclusive holder
// releases; multiple concurrent readers are permitted.
func (s *Store) OpenRead(name string) (*File, error) {
	path, err := Resolve(s.root, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if err := lockShared(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrLock, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = unlockFile(f)
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = unlockFile(f)
		_ = f.Close()
		return nil, ErrNotRegular
	}

	return &File{f: f, size: info.Size()}, nil
}

// OpenWrite creates or truncates name and takes an exclusive advisory lock
// before any content is written. Acquisition blocks until all other holders
// release.
func (s *Store) OpenWrite(name string) (*File, error) {
	path, err := Resolve(s.root, name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := lockExclusive(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrLock, err)
	}

	return &File{f: f}, nil
}

// Rename renames oldName to newName, holding an exclusive lock on the source
// for the duration. The lock only serializes against cooperating writers and
// renamers of the same name; an existing target is overwritten with whatever
// semantics the underlying rename provides.
func (s *Store) Rename(oldName, newName string) error {
	oldPath, err := Resolve(s.root, oldName)
	if err != nil {
		return err
	}
	newPath, err := Resolve(s.root, newName)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(oldPath, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("%w: %v", ErrLock, err)
	}
	defer func() { _ = unlockFile(f) }()

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	return nil
}

// Remove deletes name. The exclusive lock is best effort: when the file
// cannot be opened or locked the removal proceeds anyway, since the target
// is about to disappear.
func (s *Store) Remove(name string) error {
	path, err := Resolve(s.root, name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		_ = lockExclusive(f)
		defer func() {
			_ = unlockFile(f)
			_ = f.Close()
		}()
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// IsNotExist reports whether err means the named file does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
