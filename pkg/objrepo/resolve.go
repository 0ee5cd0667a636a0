// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package objrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrRevNotFound is returned by ResolveRev when allowMissing is false and
// spec does not resolve to a checksum.
var ErrRevNotFound = errors.New("objrepo: rev not found")

// refPath returns the on-disk path backing a local ref, either under
// refs/remotes/<origin>/<ref> (when origin is non-empty) or refs/heads/<ref>.
func (r *Repo) refPath(origin, ref string) string {
	if origin != "" {
		return filepath.Join(r.Path, "refs", "remotes", origin, filepath.FromSlash(ref))
	}
	return filepath.Join(r.Path, "refs", "heads", filepath.FromSlash(ref))
}

// ResolveRev resolves spec to a checksum. spec is either "<origin>:<ref>"
// (look up the ref under that remote's tracking refs) or a bare "<ref>"
// (look up under local heads). If the ref file doesn't exist and
// allowMissing is true, ResolveRev returns ("", nil); otherwise it returns
// ErrRevNotFound.
func (r *Repo) ResolveRev(spec string, allowMissing bool) (string, error) {
	origin, ref, _ := strings.Cut(spec, ":")
	if ref == "" {
		ref, origin = origin, ""
	}
	if ValidChecksum(ref) && origin == "" {
		return ref, nil
	}

	path := r.refPath(origin, ref)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if allowMissing {
				return "", nil
			}
			return "", fmt.Errorf("%w: %s", ErrRevNotFound, spec)
		}
		return "", fmt.Errorf("objrepo: resolving %s: %w", spec, err)
	}

	checksum := strings.TrimSpace(string(b))
	if !ValidChecksum(checksum) {
		return "", fmt.Errorf("objrepo: ref %s contains malformed checksum %q", spec, checksum)
	}
	return checksum, nil
}

// writeRef atomically records checksum as the value of a local ref.
func (r *Repo) writeRef(origin, ref, checksum string) error {
	path := r.refPath(origin, ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("objrepo: creating ref dir: %w", err)
	}
	tmp := path + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, []byte(checksum+"\n"), 0o644); err != nil {
		return fmt.Errorf("objrepo: writing ref %s: %w", ref, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("objrepo: committing ref %s: %w", ref, err)
	}
	return nil
}

// ReadCommit loads and structurally validates the commit object named by
// checksum from the local store.
func (r *Repo) ReadCommit(checksum string) (*Commit, error) {
	if !ValidChecksum(checksum) {
		return nil, fmt.Errorf("objrepo: invalid checksum %q", checksum)
	}
	b, err := os.ReadFile(r.objectPath(checksum, "commit"))
	if err != nil {
		return nil, fmt.Errorf("objrepo: reading commit %s: %w", checksum, err)
	}
	var c Commit
	if err := unmarshalObject(b, &c); err != nil {
		return nil, fmt.Errorf("objrepo: parsing commit %s: %w", checksum, err)
	}
	if !ValidChecksum(c.Tree) {
		return nil, fmt.Errorf("objrepo: commit %s has malformed tree checksum %q", checksum, c.Tree)
	}
	return &c, nil
}

// ReadDirTree loads and structurally validates a dirtree object.
func (r *Repo) ReadDirTree(checksum string) (*DirTree, error) {
	if !ValidChecksum(checksum) {
		return nil, fmt.Errorf("objrepo: invalid checksum %q", checksum)
	}
	b, err := os.ReadFile(r.objectPath(checksum, "dirtree"))
	if err != nil {
		return nil, fmt.Errorf("objrepo: reading dirtree %s: %w", checksum, err)
	}
	var t DirTree
	if err := unmarshalObject(b, &t); err != nil {
		return nil, fmt.Errorf("objrepo: parsing dirtree %s: %w", checksum, err)
	}
	return &t, nil
}

// ReadDirMeta loads a dirmeta object.
func (r *Repo) ReadDirMeta(checksum string) (*DirMeta, error) {
	if checksum == "" {
		return &DirMeta{Mode: 0o755}, nil
	}
	b, err := os.ReadFile(r.objectPath(checksum, "dirmeta"))
	if err != nil {
		return nil, fmt.Errorf("objrepo: reading dirmeta %s: %w", checksum, err)
	}
	var m DirMeta
	if err := unmarshalObject(b, &m); err != nil {
		return nil, fmt.Errorf("objrepo: parsing dirmeta %s: %w", checksum, err)
	}
	return &m, nil
}

// ReadFile loads the decompressed content of a file object.
func (r *Repo) ReadFile(checksum string) ([]byte, error) {
	b, err := os.ReadFile(r.objectPath(checksum, "file"))
	if err != nil {
		return nil, fmt.Errorf("objrepo: reading file object %s: %w", checksum, err)
	}
	return b, nil
}

// HasObject reports whether an object of the given extension is present
// locally ("commit", "dirtree", "dirmeta" or "file").
func (r *Repo) HasObject(checksum, ext string) bool {
	_, err := os.Stat(r.objectPath(checksum, ext))
	return err == nil
}

// writeObjectAtomic writes raw bytes to the object path for (checksum, ext),
// going through a temp file in the repo's tmp dir so partial writes are
// never observed by a concurrent reader.
func (r *Repo) writeObjectAtomic(checksum, ext string, data []byte) error {
	dest := r.objectPath(checksum, ext)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("objrepo: creating object dir: %w", err)
	}
	tmp := filepath.Join(r.tmpPath(), fmt.Sprintf("obj-%d-%s.%s", os.Getpid(), checksum, ext))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("objrepo: writing object %s.%s: %w", checksum, ext, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("objrepo: committing object %s.%s: %w", checksum, ext, err)
	}
	return nil
}
