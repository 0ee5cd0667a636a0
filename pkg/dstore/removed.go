// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// CleanupRemoved scans .removed/ and recursively deletes every child whose
// liveness lock is not held. A missing .removed/ is not an error. Per-entry
// probe or delete failures are logged and do not fail the overall scan.
func (s *Store) CleanupRemoved() error {
	entries, err := os.ReadDir(s.RemovedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.RemovedPath(), e.Name())
		locked, err := probeLiveness(filepath.Join(dir, "files", ".ref"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "dstore: probing liveness of %s: %v\n", dir, err)
			continue
		}
		if locked {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			fmt.Fprintf(os.Stderr, "dstore: removing %s: %v\n", dir, err)
		}
	}
	return nil
}
