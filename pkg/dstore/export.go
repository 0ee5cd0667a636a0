// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boxkit/dstore/pkg/ref"
)

// UpdateExports ensures <base>/exports/ exists, mirrors changedApp's
// current active export/ subtree into it (when changedApp is non-empty
// and has one), prunes dangling symlinks left over from prior deploys, and
// finally invokes the trigger runner. changedApp may be "" to only prune
// and run triggers.
func (s *Store) UpdateExports(changedApp string) error {
	if err := os.MkdirAll(s.ExportsPath(), 0o755); err != nil {
		return fmt.Errorf("dstore: creating exports dir: %w", err)
	}

	if changedApp != "" {
		if err := s.mirrorAppExports(changedApp); err != nil {
			return err
		}
	}

	if err := s.pruneDanglingExports(); err != nil {
		return err
	}

	return s.RunTriggers()
}

func (s *Store) mirrorAppExports(appName string) error {
	arch, branch, err := s.ReadCurrent(appName)
	if err != nil {
		return err
	}
	if arch == "" {
		return nil
	}

	r := ref.Ref{Kind: ref.KindApp, Name: appName, Arch: arch, Branch: branch}
	active, err := s.readActive(r)
	if err != nil {
		return err
	}
	if active == "" {
		return nil
	}

	exportRoot := filepath.Join(s.DeployBase(string(ref.KindApp), appName, arch, branch), active, "export")
	if fi, err := os.Stat(exportRoot); err != nil || !fi.IsDir() {
		return nil
	}

	return filepath.WalkDir(exportRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(exportRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dest := filepath.Join(s.ExportsPath(), rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		relTarget, err := filepath.Rel(filepath.Dir(dest), filepath.Join(s.Base, "app", appName, "current", "active", "export", rel))
		if err != nil {
			return err
		}

		os.Remove(dest)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.Symlink(relTarget, dest); err != nil {
			return fmt.Errorf("dstore: symlinking export %s: %w", rel, err)
		}
		return nil
	})
}

func (s *Store) pruneDanglingExports() error {
	return filepath.WalkDir(s.ExportsPath(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.Type()&os.ModeSymlink == 0 {
			return nil
		}
		if _, err := os.Stat(path); err != nil {
			os.Remove(path)
		}
		return nil
	})
}
