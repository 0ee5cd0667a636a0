// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/boxkit/dstore/pkg/ref"
)

// SetActive atomically repoints ref's "active" symlink at checksum. An
// empty checksum removes the symlink instead; its absence is not an error.
func (s *Store) SetActive(r ref.Ref, checksum string) error {
	base := s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch)
	activePath := filepath.Join(base, "active")

	if checksum == "" {
		if err := os.Remove(activePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("dstore: clearing active for %s: %w", r, err)
		}
		return nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("dstore: creating deploy base for %s: %w", r, err)
	}

	tmp := filepath.Join(base, fmt.Sprintf(".active-%d", rand.Int63()))
	if err := os.Symlink(checksum, tmp); err != nil {
		return fmt.Errorf("dstore: staging active symlink for %s: %w", r, err)
	}
	if err := os.Rename(tmp, activePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("dstore: swapping active symlink for %s: %w", r, err)
	}
	return nil
}

// readActive reads ref's "active" symlink target. Absence, or a target
// whose checkout no longer exists, yields ("", nil).
func (s *Store) readActive(r ref.Ref) (string, error) {
	base := s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch)
	target, err := os.Readlink(filepath.Join(base, "active"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("dstore: reading active for %s: %w", r, err)
	}
	if _, err := os.Stat(filepath.Join(base, target)); err != nil {
		return "", nil
	}
	return target, nil
}

// ReadActive is the public form of readActive: it returns the checksum
// currently active for ref, or "" if none is active.
func (s *Store) ReadActive(r ref.Ref) (string, error) {
	return s.readActive(r)
}
