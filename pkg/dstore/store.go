// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package dstore implements the deployment layer on top of pkg/objrepo: the
// checked-out app/runtime directory tree, active-symlink management, the
// export aggregator, the launcher rewriter, the trigger runner, the
// metadata-only fetch (over pkg/remotefetch) and the override store.
package dstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/boxkit/dstore/pkg/objrepo"
	"github.com/boxkit/dstore/pkg/remotefetch"
)

// Scope selects which store root and repo checkout mode a Store uses.
type Scope string

const (
	// ScopeUser is the per-user store, checked out in bare-user mode.
	ScopeUser Scope = "user"
	// ScopeSystem is the shared system-wide store, checked out in bare
	// mode and consulted for system-level overrides.
	ScopeSystem Scope = "system"
)

// LauncherPath is the fixed compile-time path to the sandbox launcher
// invoked by rewritten Exec= lines (spec §6.4).
const LauncherPath = "/usr/bin/xdg-app"

// TriggerHelperPath is the fixed compile-time path to the trigger-spawning
// helper invoked for each *.trigger file (spec §4.10).
const TriggerHelperPath = "/usr/libexec/xdg-app/run-triggers"

// TriggerDirName names the fixed subdirectory (relative to the store base)
// scanned for *.trigger files.
const TriggerDirName = "triggers"

// Store is one scope's deployment root: the directory hierarchy under base,
// plus the lazily-opened object repo beneath it. A Store's Base and Scope
// are immutable after construction.
type Store struct {
	Base  string
	Scope Scope

	fetcher *remotefetch.Fetcher

	mu   sync.Mutex
	repo *objrepo.Repo
}

// New constructs a Store rooted at base for the given scope. It does not
// touch the filesystem; call EnsurePath/EnsureRepo (or let Deploy etc. do
// it implicitly) to materialize the root.
func New(base string, scope Scope) *Store {
	return &Store{
		Base:    base,
		Scope:   scope,
		fetcher: remotefetch.New(),
	}
}

// repoMode maps a Store's scope to the objrepo checkout mode it uses.
func (s *Store) repoMode() objrepo.Mode {
	if s.Scope == ScopeSystem {
		return objrepo.ModeBare
	}
	return objrepo.ModeBareUser
}

// EnsurePath creates the store's base directory if it does not exist.
func (s *Store) EnsurePath() error {
	if err := os.MkdirAll(s.Base, 0o755); err != nil {
		return fmt.Errorf("dstore: creating store root %s: %w", s.Base, err)
	}
	return nil
}

// EnsureRepo opens (creating on first call) the object repo at
// <base>/repo, reusing the same handle for the lifetime of the Store.
func (s *Store) EnsureRepo() (*objrepo.Repo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		return s.repo, nil
	}

	if err := s.EnsurePath(); err != nil {
		return nil, err
	}

	repo, err := objrepo.EnsureInit(s.RepoPath(), s.repoMode())
	if err != nil {
		return nil, fmt.Errorf("dstore: ensuring repo: %w", err)
	}
	s.repo = repo
	return repo, nil
}

// RepoPath returns <base>/repo.
func (s *Store) RepoPath() string { return filepath.Join(s.Base, "repo") }

// ExportsPath returns <base>/exports.
func (s *Store) ExportsPath() string { return filepath.Join(s.Base, "exports") }

// OverridesPath returns <base>/overrides.
func (s *Store) OverridesPath() string { return filepath.Join(s.Base, "overrides") }

// RemovedPath returns <base>/.removed.
func (s *Store) RemovedPath() string { return filepath.Join(s.Base, ".removed") }

// TriggersPath returns <base>/triggers.
func (s *Store) TriggersPath() string { return filepath.Join(s.Base, TriggerDirName) }

// KindRoot returns <base>/<kind> ("app" or "runtime").
func (s *Store) KindRoot(kind string) string { return filepath.Join(s.Base, kind) }

// DeployBase returns <base>/<kind>/<name>/<arch>/<branch>.
func (s *Store) DeployBase(kind, name, arch, branch string) string {
	return filepath.Join(s.Base, kind, name, arch, branch)
}

// CurrentLinkPath returns <base>/app/<name>/current.
func (s *Store) CurrentLinkPath(name string) string {
	return filepath.Join(s.Base, "app", name, "current")
}

// Fetcher returns the store's shared remote fetch helper.
func (s *Store) Fetcher() *remotefetch.Fetcher { return s.fetcher }

var (
	registryMu sync.Mutex
	registry   = map[string]*Store{}
)

// Singleton returns the process-wide Store for (base, scope), constructing
// it on first use. Prefer New and explicit passing in library code; this
// exists for callers (the CLI) that want the source's single-instance-per-
// scope convenience without reaching for a package-level global themselves.
func Singleton(base string, scope Scope) *Store {
	key := string(scope) + ":" + base
	registryMu.Lock()
	defer registryMu.Unlock()

	if st, ok := registry[key]; ok {
		return st
	}
	st := New(base, scope)
	registry[key] = st
	return st
}
