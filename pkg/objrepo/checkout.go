// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package objrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CheckoutTree materializes the tree rooted at treeChecksum (with directory
// permissions from metaChecksum, or 0755 if empty) into dest. dest must not
// already exist when noOverwrite is set; when noOverwrite is false existing
// files are overwritten and missing ones are created. mode selects the file
// permission bits: ModeBare writes files 0755, ModeBareUser 0644, both
// adjusted by the umask.
func (r *Repo) CheckoutTree(ctx context.Context, mode Mode, noOverwrite bool, dest, treeChecksum, metaChecksum string) error {
	if noOverwrite {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("objrepo: checkout destination %s already exists", dest)
		}
	}

	meta, err := r.ReadDirMeta(metaChecksum)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, os.FileMode(meta.Mode)); err != nil {
		return fmt.Errorf("objrepo: creating checkout root %s: %w", dest, err)
	}

	return r.checkoutDir(ctx, mode, noOverwrite, dest, treeChecksum)
}

func (r *Repo) checkoutDir(ctx context.Context, mode Mode, noOverwrite bool, dest, treeChecksum string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tree, err := r.ReadDirTree(treeChecksum)
	if err != nil {
		return err
	}

	for _, f := range tree.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dest, f.Name)
		if noOverwrite {
			if _, err := os.Lstat(target); err == nil {
				return fmt.Errorf("objrepo: checkout entry %s already exists", target)
			}
		}
		data, err := r.ReadFile(f.Checksum)
		if err != nil {
			return fmt.Errorf("objrepo: checking out %s: %w", target, err)
		}
		perm := os.FileMode(0o644)
		if mode == ModeBare {
			perm = 0o755
		}
		if err := os.WriteFile(target, data, perm); err != nil {
			return fmt.Errorf("objrepo: writing %s: %w", target, err)
		}
	}

	for _, d := range tree.Dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		subdest := filepath.Join(dest, d.Name)
		meta, err := r.ReadDirMeta(d.Meta)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(subdest, os.FileMode(meta.Mode)); err != nil {
			return fmt.Errorf("objrepo: creating %s: %w", subdest, err)
		}
		if err := r.checkoutDir(ctx, mode, noOverwrite, subdest, d.Tree); err != nil {
			return err
		}
	}

	return nil
}
