//go:build unix

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// Advisory whole-file locks via flock(2). flock locks belong to the open
// file description, not the process, so two sessions in the same server
// process contend correctly through their separate handles. Acquisition
// blocks until the lock is obtainable.

func lockShared(f *os.File) error {
	return flock(f, unix.LOCK_SH)
}

func lockExclusive(f *os.File) error {
	return flock(f, unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return flock(f, unix.LOCK_UN)
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}
