// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

// Prune delegates to the object store's prune in refs-only mode, depth 0,
// reporting how many objects were removed and how many bytes were freed.
func (s *Store) Prune() (prunedCount int, freedBytes int64, err error) {
	repo, err := s.EnsureRepo()
	if err != nil {
		return 0, 0, err
	}
	return repo.Prune(true, 0)
}
