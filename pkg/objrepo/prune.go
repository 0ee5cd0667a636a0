// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package objrepo

import (
	"os"
	"path/filepath"
)

// Prune deletes objects unreachable from any local ref. refsOnly restricts
// reachability roots to ref tips (the only mode this package implements);
// depth bounds how many parent commits beyond each tip are kept (0 keeps
// only the tip). It reports the number of objects removed and bytes freed.
func (r *Repo) Prune(refsOnly bool, depth int) (prunedCount int, freedBytes int64, err error) {
	reachable := make(map[string]bool)

	var walkRef = func(path string) error {
		return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			checksum, rerr := os.ReadFile(p)
			if rerr != nil {
				return nil
			}
			c := string(checksum)
			c = trimChecksum(c)
			if ValidChecksum(c) {
				r.markReachable(reachable, c, depth)
			}
			return nil
		})
	}

	if err := walkRef(filepath.Join(r.Path, "refs", "heads")); err != nil {
		return 0, 0, err
	}
	if err := walkRef(filepath.Join(r.Path, "refs", "remotes")); err != nil {
		return 0, 0, err
	}

	objectsRoot := filepath.Join(r.Path, "objects")
	err = filepath.Walk(objectsRoot, func(p string, info os.FileInfo, werr error) error {
		if werr != nil {
			if os.IsNotExist(werr) {
				return nil
			}
			return werr
		}
		if info.IsDir() {
			return nil
		}

		checksum, ext := splitObjectFilename(objectsRoot, p)
		if checksum == "" {
			return nil
		}
		if reachable[checksum] {
			return nil
		}
		_ = ext
		size := info.Size()
		if rmErr := os.Remove(p); rmErr != nil {
			return nil
		}
		prunedCount++
		freedBytes += size
		return nil
	})
	if err != nil {
		return prunedCount, freedBytes, err
	}

	return prunedCount, freedBytes, nil
}

func (r *Repo) markReachable(reachable map[string]bool, checksum string, depth int) {
	for i := 0; i <= depth && checksum != ""; i++ {
		if reachable[checksum] {
			return
		}
		reachable[checksum] = true
		commit, err := r.ReadCommit(checksum)
		if err != nil {
			return
		}
		r.markTreeReachable(reachable, commit.Tree)
		checksum = commit.Parent
	}
}

func (r *Repo) markTreeReachable(reachable map[string]bool, treeChecksum string) {
	if treeChecksum == "" || reachable[treeChecksum+"#tree"] {
		return
	}
	reachable[treeChecksum+"#tree"] = true
	reachable[treeChecksum] = true

	tree, err := r.ReadDirTree(treeChecksum)
	if err != nil {
		return
	}
	for _, f := range tree.Files {
		reachable[f.Checksum] = true
	}
	for _, d := range tree.Dirs {
		if d.Meta != "" {
			reachable[d.Meta] = true
		}
		r.markTreeReachable(reachable, d.Tree)
	}
}

func trimChecksum(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' || c == '\r' || c == ' ' || c == '\t' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// splitObjectFilename extracts the 64-hex checksum and extension from an
// objects/<cc>/<rest>.<ext> path, returning ("", "") if it doesn't match.
func splitObjectFilename(objectsRoot, p string) (checksum, ext string) {
	rel, err := filepath.Rel(objectsRoot, p)
	if err != nil {
		return "", ""
	}
	dir := filepath.Dir(rel)
	base := filepath.Base(rel)
	if len(dir) != 2 {
		return "", ""
	}
	for i := 0; i < len(base); i++ {
		if base[i] == '.' {
			checksum = dir + base[:i]
			ext = base[i+1:]
			if ValidChecksum(checksum) {
				return checksum, ext
			}
			return "", ""
		}
	}
	return "", ""
}
