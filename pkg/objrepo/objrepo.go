// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package objrepo implements the content-addressed object store consumed by
// the deployment layer: local commit/dirtree/dirmeta/file objects, a remote
// registry, pull-by-ref-or-checksum, tree checkout and prune. The on-disk
// object encoding and the remote wire format are internal to this package —
// callers only see checksums, Commit/DirTree values and byte payloads.
package objrepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Mode selects the checkout ownership/permission convention used when
// materializing a tree on disk.
type Mode int

const (
	// ModeBare checks out every file with mode 0755, for a system-scope
	// store shared across users. The object format records no per-file
	// uid, gid or mode bits.
	ModeBare Mode = iota
	// ModeBareUser checks out files owned by the current user regardless
	// of recorded ownership, matching a user-scope store.
	ModeBareUser
)

var checksumRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ValidChecksum reports whether s is a well-formed object checksum.
func ValidChecksum(s string) bool {
	return checksumRe.MatchString(s)
}

// Commit is the root object of a pulled branch: it names the tree checked
// out for that commit and carries free-form metadata (app id, subject...).
type Commit struct {
	Tree      string            `json:"tree"`
	Parent    string            `json:"parent,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DirTree lists one directory level of a checked-out tree: files by name and
// content checksum, and subdirectories by name, tree checksum and meta
// checksum.
type DirTree struct {
	Files []DirTreeFile `json:"files"`
	Dirs  []DirTreeDir  `json:"dirs"`
}

// DirTreeFile is one regular-file entry of a DirTree.
type DirTreeFile struct {
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
}

// DirTreeDir is one subdirectory entry of a DirTree.
type DirTreeDir struct {
	Name     string `json:"name"`
	Tree     string `json:"tree"`
	Meta     string `json:"meta"`
}

// DirMeta carries the permission bits applied to a directory at checkout.
type DirMeta struct {
	Mode uint32 `json:"mode"`
}

// Remote describes one configured remote object store.
type Remote struct {
	Name         string
	URL          string
	Title        string
	NoEnumerate  bool
}

// Repo is one opened object store rooted at Path. It is safe for concurrent
// use by multiple goroutines within a process; concurrent use by multiple
// processes sharing Path is assumed safe by the on-disk layout (append-once
// objects, atomic ref updates).
type Repo struct {
	Path string
	Mode Mode

	mu      sync.Mutex
	remotes map[string]*Remote
}

// EnsureInit creates the on-disk repo layout at path if it does not already
// exist. It is idempotent: calling it again on an already-initialized repo
// is a no-op. On failure partway through creation, the partially-created
// directory is removed so a retry starts clean.
func EnsureInit(path string, mode Mode) (*Repo, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		if _, err := os.Stat(filepath.Join(path, "config")); err == nil {
			return open(path, mode)
		}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("objrepo: creating %s: %w", path, err)
	}

	for _, sub := range []string{"objects", "refs/remotes", "refs/heads", "tmp"} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
			os.RemoveAll(path)
			return nil, fmt.Errorf("objrepo: creating %s: %w", sub, err)
		}
	}

	if err := writeConfig(path, nil); err != nil {
		os.RemoveAll(path)
		return nil, fmt.Errorf("objrepo: writing config: %w", err)
	}

	return open(path, mode)
}

func open(path string, mode Mode) (*Repo, error) {
	r := &Repo{Path: path, Mode: mode, remotes: make(map[string]*Remote)}
	if err := r.loadRemotes(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) objectPath(checksum, ext string) string {
	return filepath.Join(r.Path, "objects", checksum[:2], checksum[2:]+"."+ext)
}

func (r *Repo) tmpPath() string {
	return filepath.Join(r.Path, "tmp")
}

func marshalObject(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalObject(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
