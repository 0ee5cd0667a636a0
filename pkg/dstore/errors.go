// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import "errors"

// Sentinel errors reported by Store operations. Callers distinguish these
// with errors.Is; every other failure is a wrapped I/O or network error.
var (
	// ErrAlreadyDeployed is returned by Deploy when the target checksum
	// directory already exists for the ref.
	ErrAlreadyDeployed = errors.New("dstore: already deployed")

	// ErrAlreadyUndeployed is returned by Undeploy when the target
	// checksum directory is absent for the ref.
	ErrAlreadyUndeployed = errors.New("dstore: already undeployed")

	// ErrNotDeployed is the error kind for a ref with no deployed
	// checksum. No Store operation in this package returns it.
	ErrNotDeployed = errors.New("dstore: not deployed")

	// ErrObjectNotFound mirrors the remote fetch helper's NOT_FOUND kind
	// for metadata-only fetches and remote object lookups.
	ErrObjectNotFound = errors.New("dstore: object not found")

	// ErrFetchFailed mirrors the remote fetch helper's FAILED kind.
	ErrFetchFailed = errors.New("dstore: fetch failed")

	// ErrServiceNameMismatch is returned by the launcher rewriter when a
	// D-Bus .service file's Name= doesn't match its basename.
	ErrServiceNameMismatch = errors.New("dstore: service name mismatch")
)
