package server

import (
	"errors"
	"fmt"

	"github.com/mcrocce/flatstore/internal/logger"
	"github.com/mcrocce/flatstore/internal/proto"
	"github.com/mcrocce/flatstore/internal/store"
)

// Every handler follows the same shape: validate arguments, resolve the
// name, open and lock, do the filesystem work, release, then send the
// status line (plus streamed body where the command has one). A returned
// error always means the connection itself is unusable.

func (s *session) handleList() error {
	entries, err := s.server.store.List()
	if err != nil {
		logger.Warn("LIST failed: %v", err)
		return s.conn.WriteLine("ERR cannot open storage")
	}

	if err := s.conn.WriteLine("OK %d", len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.conn.WriteLine("FILE %s %d", e.Name, e.Size); err != nil {
			return err
		}
	}
	return s.conn.WriteLine("END")
}

func (s *session) handleUpload(name string, size int64) error {
	if size < 0 {
		return s.conn.WriteLine("ERR invalid size")
	}

	f, err := s.server.store.OpenWrite(name)
	if err != nil {
		return s.conn.WriteLine("ERR %s", openErrMessage(err, "cannot open file for write"))
	}
	defer f.Close()

	// The OK line tells the client to start streaming; from here until the
	// full payload is consumed the stream carries raw bytes, not lines.
	if err := s.conn.WriteLine("OK"); err != nil {
		return err
	}

	buf := make([]byte, proto.TransferChunkSize)
	remaining := size
	for remaining > 0 {
		chunk := buf
		if remaining < int64(len(buf)) {
			chunk = buf[:remaining]
		}
		if err := s.conn.ReadFull(chunk); err != nil {
			// Short read: the peer vanished mid-payload. The file stays
			// partial; there is no rollback.
			return fmt.Errorf("receive payload: %w", err)
		}
		if _, err := f.Write(chunk); err != nil {
			// Local write failure. The unread remainder is drained so the
			// next line read does not see payload bytes as commands.
			logger.Warn("UPLOAD %s: write failed: %v", name, err)
			if drainErr := s.conn.Discard(remaining - int64(len(chunk))); drainErr != nil {
				return fmt.Errorf("drain payload: %w", drainErr)
			}
			return s.conn.WriteLine("ERR write failed")
		}
		remaining -= int64(len(chunk))
	}

	if err := f.Sync(); err != nil {
		logger.Warn("UPLOAD %s: fsync failed: %v", name, err)
		return s.conn.WriteLine("ERR write failed")
	}

	s.server.metrics.RecordBytes("in", size)
	return s.conn.WriteLine("OK SAVED")
}

func (s *session) handleDownload(name string) error {
	f, err := s.server.store.OpenRead(name)
	if err != nil {
		return s.conn.WriteLine("ERR %s", openErrMessage(err, "cannot open file"))
	}
	defer f.Close()

	if err := s.conn.WriteLine("OK %d", f.Size()); err != nil {
		return err
	}

	// The size header is committed; a failure past this point cannot be
	// reported in-band, the session just ends.
	n, err := s.conn.WriteFrom(f.Sys(), f.Size())
	s.server.metrics.RecordBytes("out", n)
	if err != nil {
		return fmt.Errorf("send payload: %w", err)
	}
	return nil
}

func (s *session) handleRename(oldName, newName string) error {
	if err := s.server.store.Rename(oldName, newName); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidName):
			return s.conn.WriteLine("ERR bad filename")
		case errors.Is(err, store.ErrLock):
			return s.conn.WriteLine("ERR cannot lock")
		case store.IsNotExist(err):
			return s.conn.WriteLine("ERR not found")
		default:
			logger.Warn("RENAME %s -> %s failed: %v", oldName, newName, err)
			return s.conn.WriteLine("ERR rename failed")
		}
	}
	return s.conn.WriteLine("OK RENAMED")
}

func (s *session) handleDelete(name string) error {
	if err := s.server.store.Remove(name); err != nil {
		if errors.Is(err, store.ErrInvalidName) {
			return s.conn.WriteLine("ERR bad filename")
		}
		logger.Debug("DELETE %s failed: %v", name, err)
		return s.conn.WriteLine("ERR delete failed")
	}
	return s.conn.WriteLine("OK DELETED")
}

// openErrMessage maps a store open failure to the protocol error message,
// falling back to fallback for anything unclassified.
func openErrMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, store.ErrInvalidName):
		return "bad filename"
	case errors.Is(err, store.ErrLock):
		return "cannot lock file"
	case errors.Is(err, store.ErrNotRegular):
		return "not a file"
	case store.IsNotExist(err):
		return "not found"
	default:
		return fallback
	}
}
