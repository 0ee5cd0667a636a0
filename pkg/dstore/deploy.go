// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boxkit/dstore/pkg/objrepo"
	"github.com/boxkit/dstore/pkg/ref"
)

// originFilePath returns the deploy-base-level file recording which remote
// a ref's commits are pulled from. It is distinct from the per-checkout
// "origin" snapshot written inside each checksum directory.
func (s *Store) originFilePath(r ref.Ref) string {
	return filepath.Join(s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch), "origin")
}

// SetOrigin records remoteName as the origin for ref, consulted by Deploy
// to resolve a bare ref and to re-pull a missing commit. SetOrigin is the
// only writer of this file; Pull does not record an origin.
func (s *Store) SetOrigin(r ref.Ref, remoteName string) error {
	base := s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("dstore: creating deploy base for %s: %w", r, err)
	}
	if err := os.WriteFile(s.originFilePath(r), []byte(remoteName), 0o644); err != nil {
		return fmt.Errorf("dstore: writing origin for %s: %w", r, err)
	}
	return nil
}

func (s *Store) readOrigin(r ref.Ref) (string, error) {
	b, err := os.ReadFile(s.originFilePath(r))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("dstore: reading origin for %s: %w", r, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Deploy checks out checksum (resolving it from ref's origin if empty) as
// a new sibling under ref's deploy base and switches "active" to it.
func (s *Store) Deploy(ctx context.Context, r ref.Ref, checksum string) error {
	repo, err := s.EnsureRepo()
	if err != nil {
		return err
	}

	origin, err := s.readOrigin(r)
	if err != nil {
		return err
	}

	if checksum == "" {
		spec := r.String()
		if origin != "" {
			spec = origin + ":" + r.String()
		}
		checksum, err = repo.ResolveRev(spec, false)
		if err != nil {
			return fmt.Errorf("dstore: resolving %s for deploy: %w", r, err)
		}
	} else if !repo.HasObject(checksum, "commit") {
		if origin == "" {
			return fmt.Errorf("dstore: deploying %s at %s: no origin recorded for a missing commit", r, checksum)
		}
		if err := repo.Pull(ctx, s.fetcher, origin, []string{checksum}, nil); err != nil {
			return fmt.Errorf("dstore: pulling %s for deploy: %w", checksum, err)
		}
	}

	if !objrepo.ValidChecksum(checksum) {
		return fmt.Errorf("dstore: deploy: resolved malformed checksum %q for %s", checksum, r)
	}

	checkoutDir := filepath.Join(s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch), checksum)
	if _, err := os.Stat(checkoutDir); err == nil {
		return fmt.Errorf("%w: %s at %s", ErrAlreadyDeployed, r, checksum)
	}

	commit, err := repo.ReadCommit(checksum)
	if err != nil {
		return fmt.Errorf("dstore: reading commit %s: %w", checksum, err)
	}

	if err := repo.CheckoutTree(ctx, s.repoMode(), true, checkoutDir, commit.Tree, ""); err != nil {
		return fmt.Errorf("dstore: checking out %s: %w", checksum, err)
	}

	filesDir := filepath.Join(checkoutDir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return fmt.Errorf("dstore: creating files dir for %s: %w", r, err)
	}
	if err := os.WriteFile(filepath.Join(filesDir, ".ref"), nil, 0o644); err != nil {
		return fmt.Errorf("dstore: writing liveness lock file for %s: %w", r, err)
	}

	if origin != "" {
		if err := os.WriteFile(filepath.Join(checkoutDir, "origin"), []byte(origin), 0o644); err != nil {
			return fmt.Errorf("dstore: writing checkout origin for %s: %w", r, err)
		}
	}

	exportDir := filepath.Join(checkoutDir, "export")
	if fi, err := os.Stat(exportDir); err == nil && fi.IsDir() {
		if err := s.rewriteLauncherExec(exportDir, r.Name, r.Arch, r.Branch); err != nil {
			return fmt.Errorf("dstore: rewriting launcher exports for %s: %w", r, err)
		}
	}

	if err := s.SetActive(r, checksum); err != nil {
		return fmt.Errorf("dstore: activating %s at %s: %w", r, checksum, err)
	}

	return nil
}
