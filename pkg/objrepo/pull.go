// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package objrepo

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/boxkit/dstore/pkg/ref"
	"github.com/boxkit/dstore/pkg/remotefetch"
)

// maxFilezHeader bounds the header-size prefix read from a .filez object,
// guarding against a corrupt or hostile remote claiming an absurd header.
const maxFilezHeader = 1 << 20

// ObjectURL builds the wire URL for one object of a remote repo.
func ObjectURL(baseURL, checksum, ext string) string {
	return fmt.Sprintf("%s/objects/%s/%s.%s", strings.TrimRight(baseURL, "/"), checksum[:2], checksum[2:], ext)
}

// RefURL builds the wire URL used to resolve a single ref to a checksum.
func RefURL(baseURL, refStr string) string {
	return fmt.Sprintf("%s/refs/%s", strings.TrimRight(baseURL, "/"), refStr)
}

// RefsListURL builds the wire URL for the remote's full ref listing.
func RefsListURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/refs-list"
}

// SummaryURL builds the wire URL for the remote's opaque summary blob.
func SummaryURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/summary"
}

// ConfigURL builds the wire URL for the remote's optional config key-file.
func ConfigURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/config"
}

// DecodeFilez strips a .filez object's header-size-prefixed header and
// padding, then raw-deflate-decompresses the remainder. The first 4 bytes
// are a big-endian header size; the header and a 4-byte pad follow it.
func DecodeFilez(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("objrepo: filez object truncated (%d bytes)", len(data))
	}
	headerSize := binary.BigEndian.Uint32(data[:4])
	if headerSize > maxFilezHeader {
		return nil, fmt.Errorf("objrepo: filez header size %d exceeds limit", headerSize)
	}
	skip := 4 + int(headerSize) + 4
	if skip > len(data) {
		return nil, fmt.Errorf("objrepo: filez object truncated: need %d bytes, have %d", skip, len(data))
	}

	r := flate.NewReader(bytes.NewReader(data[skip:]))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("objrepo: inflating filez payload: %w", err)
	}
	return out, nil
}

// EncodeFilez is the inverse of DecodeFilez: it wraps a raw-deflate
// compression of payload with a zero-length header and the 4+4 byte framing
// the wire format expects. It exists primarily so tests (and any remote
// server this module serves) can produce objects DecodeFilez understands.
func EncodeFilez(payload []byte) ([]byte, error) {
	var compressed bytes.Buffer
	w, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], 0)
	out.Write(sizeBuf[:])        // header size = 0
	out.Write(sizeBuf[:])        // 4 bytes of pad (header itself is empty)
	out.Write(compressed.Bytes())
	return out.Bytes(), nil
}

// ProgressEvent reports one step of a Pull operation.
type ProgressEvent struct {
	Phase    string // "ref", "commit", "dirtree", "file"
	Checksum string
	Bytes    int64
}

// Pull fetches the object closure for each item in refsOrCommits from the
// named remote: a bare ref is first resolved via the remote's refs
// endpoint and the local tracking ref is updated; a 64-hex-digit string is
// treated as a commit checksum directly. Objects already present locally
// are not re-fetched.
func (r *Repo) Pull(ctx context.Context, fetcher *remotefetch.Fetcher, remoteName string, refsOrCommits []string, progress func(ProgressEvent)) error {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	baseURL, err := r.RemoteGetURL(remoteName)
	if err != nil {
		return err
	}

	for _, item := range refsOrCommits {
		checksum := item
		var trackedRef string

		if !ValidChecksum(item) {
			if _, err := ref.Parse(item); err != nil {
				return fmt.Errorf("objrepo: pull item %q is neither a checksum nor a valid ref: %w", item, err)
			}
			body, err := fetcher.Load(ctx, RefURL(baseURL, item))
			if err != nil {
				return fmt.Errorf("objrepo: resolving remote ref %s: %w", item, err)
			}
			checksum = strings.TrimSpace(string(body))
			if !ValidChecksum(checksum) {
				return fmt.Errorf("objrepo: remote %s returned malformed checksum %q for ref %s", remoteName, checksum, item)
			}
			trackedRef = item
			progress(ProgressEvent{Phase: "ref", Checksum: checksum})
		}

		if err := r.pullCommitClosure(ctx, fetcher, baseURL, checksum, progress); err != nil {
			return fmt.Errorf("objrepo: pulling %s from %s: %w", item, remoteName, err)
		}

		if trackedRef != "" {
			if err := r.writeRef(remoteName, trackedRef, checksum); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Repo) pullCommitClosure(ctx context.Context, fetcher *remotefetch.Fetcher, baseURL, checksum string, progress func(ProgressEvent)) error {
	if !r.HasObject(checksum, "commit") {
		body, err := fetcher.Load(ctx, ObjectURL(baseURL, checksum, "commit"))
		if err != nil {
			return fmt.Errorf("fetching commit %s: %w", checksum, err)
		}
		var c Commit
		if err := unmarshalObject(body, &c); err != nil {
			return fmt.Errorf("parsing commit %s: %w", checksum, err)
		}
		if !ValidChecksum(c.Tree) {
			return fmt.Errorf("commit %s has malformed tree checksum %q", checksum, c.Tree)
		}
		if err := r.writeObjectAtomic(checksum, "commit", body); err != nil {
			return err
		}
		progress(ProgressEvent{Phase: "commit", Checksum: checksum, Bytes: int64(len(body))})
	}

	commit, err := r.ReadCommit(checksum)
	if err != nil {
		return err
	}

	return r.pullTree(ctx, fetcher, baseURL, commit.Tree, progress)
}

func (r *Repo) pullTree(ctx context.Context, fetcher *remotefetch.Fetcher, baseURL, treeChecksum string, progress func(ProgressEvent)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !r.HasObject(treeChecksum, "dirtree") {
		body, err := fetcher.Load(ctx, ObjectURL(baseURL, treeChecksum, "dirtree"))
		if err != nil {
			return fmt.Errorf("fetching dirtree %s: %w", treeChecksum, err)
		}
		var t DirTree
		if err := unmarshalObject(body, &t); err != nil {
			return fmt.Errorf("parsing dirtree %s: %w", treeChecksum, err)
		}
		if err := r.writeObjectAtomic(treeChecksum, "dirtree", body); err != nil {
			return err
		}
		progress(ProgressEvent{Phase: "dirtree", Checksum: treeChecksum, Bytes: int64(len(body))})
	}

	tree, err := r.ReadDirTree(treeChecksum)
	if err != nil {
		return err
	}

	for _, f := range tree.Files {
		if !r.HasObject(f.Checksum, "file") {
			body, err := fetcher.Load(ctx, ObjectURL(baseURL, f.Checksum, "filez"))
			if err != nil {
				return fmt.Errorf("fetching file %s (%s): %w", f.Name, f.Checksum, err)
			}
			payload, err := DecodeFilez(body)
			if err != nil {
				return fmt.Errorf("decoding file %s (%s): %w", f.Name, f.Checksum, err)
			}
			if err := r.writeObjectAtomic(f.Checksum, "file", payload); err != nil {
				return err
			}
			progress(ProgressEvent{Phase: "file", Checksum: f.Checksum, Bytes: int64(len(payload))})
		}
	}

	for _, d := range tree.Dirs {
		if d.Meta != "" && !r.HasObject(d.Meta, "dirmeta") {
			body, err := fetcher.Load(ctx, ObjectURL(baseURL, d.Meta, "dirmeta"))
			if err != nil {
				return fmt.Errorf("fetching dirmeta for %s: %w", d.Name, err)
			}
			if err := r.writeObjectAtomic(d.Meta, "dirmeta", body); err != nil {
				return err
			}
		}
		if err := r.pullTree(ctx, fetcher, baseURL, d.Tree, progress); err != nil {
			return err
		}
	}

	return nil
}

// RemoteListRefs fetches and parses the remote's full ref listing
// ("ref\tchecksum" per line).
func (r *Repo) RemoteListRefs(ctx context.Context, fetcher *remotefetch.Fetcher, remoteName string) (map[string]string, error) {
	baseURL, err := r.RemoteGetURL(remoteName)
	if err != nil {
		return nil, err
	}
	body, err := fetcher.Load(ctx, RefsListURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("objrepo: listing refs on %s: %w", remoteName, err)
	}

	out := make(map[string]string)
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, checksum, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		out[name] = checksum
	}
	return out, nil
}

// RemoteFetchSummary fetches the remote's opaque summary blob verbatim.
func (r *Repo) RemoteFetchSummary(ctx context.Context, fetcher *remotefetch.Fetcher, remoteName string) ([]byte, error) {
	baseURL, err := r.RemoteGetURL(remoteName)
	if err != nil {
		return nil, err
	}
	body, err := fetcher.Load(ctx, SummaryURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("objrepo: fetching summary from %s: %w", remoteName, err)
	}
	return body, nil
}
