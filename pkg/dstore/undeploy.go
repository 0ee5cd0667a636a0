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

// Undeploy relocates the checkout at ref/checksum into the store's
// .removed/ staging area, repointing active first if it targeted this
// checksum. If force is set, or the moved checkout's liveness lock is not
// held by any process, it is deleted immediately; otherwise CleanupRemoved
// finishes the job later.
func (s *Store) Undeploy(r ref.Ref, checksum string, force bool) error {
	checkoutDir := filepath.Join(s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch), checksum)
	if _, err := os.Stat(checkoutDir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s at %s", ErrAlreadyUndeployed, r, checksum)
		}
		return fmt.Errorf("dstore: checking %s at %s: %w", r, checksum, err)
	}

	if _, err := s.EnsureRepo(); err != nil {
		return err
	}

	active, err := s.readActive(r)
	if err != nil {
		return err
	}
	if active == checksum {
		remaining, err := s.ListDeployed(r)
		if err != nil {
			return err
		}
		var fallback string
		for _, c := range remaining {
			if c != checksum {
				fallback = c
				break
			}
		}
		if err := s.SetActive(r, fallback); err != nil {
			return fmt.Errorf("dstore: repointing active away from %s: %w", checksum, err)
		}
	}

	if err := os.MkdirAll(s.RemovedPath(), 0o755); err != nil {
		return fmt.Errorf("dstore: creating removed staging dir: %w", err)
	}

	removedDir := filepath.Join(s.RemovedPath(), fmt.Sprintf("%d-%s", rand.Int63(), checksum))
	if err := os.Rename(checkoutDir, removedDir); err != nil {
		return fmt.Errorf("dstore: moving %s at %s to removed staging: %w", r, checksum, err)
	}

	if force {
		return os.RemoveAll(removedDir)
	}

	locked, err := probeLiveness(filepath.Join(removedDir, "files", ".ref"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dstore: probing liveness of %s: %v\n", removedDir, err)
		return nil
	}
	if !locked {
		if err := os.RemoveAll(removedDir); err != nil {
			fmt.Fprintf(os.Stderr, "dstore: removing %s: %v\n", removedDir, err)
		}
	}
	return nil
}
