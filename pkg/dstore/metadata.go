// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boxkit/dstore/pkg/objrepo"
	"github.com/boxkit/dstore/pkg/remotefetch"
)

// FetchMetadata retrieves just the "metadata" file of commit from
// remoteName without performing a full checkout: it fetches the commit
// object, then its root dirtree, then the metadata file's object, fully
// decompressing the wire (.filez) encoding before returning.
func (s *Store) FetchMetadata(ctx context.Context, remoteName, commit string) ([]byte, error) {
	repo, err := s.EnsureRepo()
	if err != nil {
		return nil, err
	}
	baseURL, err := repo.RemoteGetURL(remoteName)
	if err != nil {
		return nil, err
	}

	commitBody, err := s.fetcher.Load(ctx, objrepo.ObjectURL(baseURL, commit, "commit"))
	if err != nil {
		return nil, wrapFetchErr(err, "commit", commit)
	}
	var c objrepo.Commit
	if err := json.Unmarshal(commitBody, &c); err != nil {
		return nil, fmt.Errorf("%w: parsing commit %s: %v", ErrFetchFailed, commit, err)
	}
	if !objrepo.ValidChecksum(c.Tree) {
		return nil, fmt.Errorf("%w: commit %s has malformed tree checksum %q", ErrFetchFailed, commit, c.Tree)
	}

	treeBody, err := s.fetcher.Load(ctx, objrepo.ObjectURL(baseURL, c.Tree, "dirtree"))
	if err != nil {
		return nil, wrapFetchErr(err, "dirtree", c.Tree)
	}
	var tree objrepo.DirTree
	if err := json.Unmarshal(treeBody, &tree); err != nil {
		return nil, fmt.Errorf("%w: parsing dirtree %s: %v", ErrFetchFailed, c.Tree, err)
	}

	var metadataChecksum string
	for _, f := range tree.Files {
		if f.Name == "metadata" {
			metadataChecksum = f.Checksum
			break
		}
	}
	if metadataChecksum == "" {
		return nil, fmt.Errorf("%w: commit %s has no top-level metadata file", ErrObjectNotFound, commit)
	}

	filezBody, err := s.fetcher.Load(ctx, objrepo.ObjectURL(baseURL, metadataChecksum, "filez"))
	if err != nil {
		return nil, wrapFetchErr(err, "file", metadataChecksum)
	}

	payload, err := objrepo.DecodeFilez(filezBody)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding metadata object %s: %v", ErrFetchFailed, metadataChecksum, err)
	}
	return payload, nil
}

// wrapFetchErr maps a remotefetch error to the dstore-level sentinel it
// corresponds to, preserving the original error text.
func wrapFetchErr(err error, kind, checksum string) error {
	if errors.Is(err, remotefetch.ErrNotFound) {
		return fmt.Errorf("%w: %s %s: %v", ErrObjectNotFound, kind, checksum, err)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrFetchFailed, kind, checksum, err)
}
