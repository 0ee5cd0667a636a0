// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// probeLiveness reports whether some process holds a POSIX advisory write
// lock on path, without ever acquiring the lock itself: it issues a
// non-blocking F_GETLK and inspects the returned lock type. A missing file
// is treated as unlocked.
func probeLiveness(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("dstore: opening %s to probe liveness: %w", path, err)
	}
	defer f.Close()

	lock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: 0,
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_GETLK, &lock); err != nil {
		return false, fmt.Errorf("dstore: probing lock on %s: %w", path, err)
	}
	return lock.Type != unix.F_UNLCK, nil
}
