// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/boxkit/dstore/pkg/objrepo"
	"github.com/boxkit/dstore/pkg/ref"
)

// ListRefs enumerates every ref deployed under kind ("app" or "runtime").
// A missing kind root is not an error; it yields an empty, sorted list.
// The legacy top-level child literally named "data" is skipped silently.
func (s *Store) ListRefs(kind ref.Kind) ([]ref.Ref, error) {
	names, err := readDirNames(s.KindRoot(string(kind)))
	if err != nil {
		return nil, err
	}

	var out []ref.Ref
	for _, name := range names {
		if strings.HasPrefix(name, ".") || name == "data" {
			continue
		}
		nameDir := filepath.Join(s.KindRoot(string(kind)), name)

		arches, err := readDirNames(nameDir)
		if err != nil {
			continue
		}
		for _, arch := range arches {
			if arch == "current" || strings.HasPrefix(arch, ".") {
				continue
			}
			archDir := filepath.Join(nameDir, arch)
			branches, err := readDirNames(archDir)
			if err != nil {
				continue
			}
			for _, branch := range branches {
				if strings.HasPrefix(branch, ".") {
					continue
				}
				out = append(out, ref.Ref{Kind: kind, Name: name, Arch: arch, Branch: branch})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// ActiveNames returns the sorted, deduplicated set of app/runtime names
// under kind that currently have a non-dangling "active" symlink for at
// least one arch/branch, optionally restricted to names with namePrefix.
func (s *Store) ActiveNames(kind ref.Kind, namePrefix string) ([]string, error) {
	refs, err := s.ListRefs(kind)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range refs {
		if namePrefix != "" && !strings.HasPrefix(r.Name, namePrefix) {
			continue
		}
		if seen[r.Name] {
			continue
		}
		target, err := s.readActive(r)
		if err != nil || target == "" {
			continue
		}
		seen[r.Name] = true
		out = append(out, r.Name)
	}

	sort.Strings(out)
	return out, nil
}

// ListDeployed returns every checksum checked out under ref's deploy base,
// sorted lexicographically. A missing deploy base is not an error.
func (s *Store) ListDeployed(r ref.Ref) ([]string, error) {
	base := s.DeployBase(string(r.Kind), r.Name, r.Arch, r.Branch)
	names, err := readDirNames(base)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, name := range names {
		if objrepo.ValidChecksum(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// readDirNames lists the base names of path's children. A missing path is
// not an error; it yields nil.
func readDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
