// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"context"

	"github.com/boxkit/dstore/pkg/objrepo"
)

// Pull fetches refsOrCommits from remoteName into the store's object repo,
// reporting progress through progress (which may be nil).
func (s *Store) Pull(ctx context.Context, remoteName string, refsOrCommits []string, progress func(objrepo.ProgressEvent)) error {
	repo, err := s.EnsureRepo()
	if err != nil {
		return err
	}
	return repo.Pull(ctx, s.fetcher, remoteName, refsOrCommits, progress)
}

// RemoteListRefs delegates to the object repo's remote-list-refs query.
func (s *Store) RemoteListRefs(ctx context.Context, remoteName string) (map[string]string, error) {
	repo, err := s.EnsureRepo()
	if err != nil {
		return nil, err
	}
	return repo.RemoteListRefs(ctx, s.fetcher, remoteName)
}

// RemoteFetchSummary delegates to the object repo's remote-fetch-summary
// query.
func (s *Store) RemoteFetchSummary(ctx context.Context, remoteName string) ([]byte, error) {
	repo, err := s.EnsureRepo()
	if err != nil {
		return nil, err
	}
	return repo.RemoteFetchSummary(ctx, s.fetcher, remoteName)
}
