// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package objrepo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boxkit/dstore/pkg/remotefetch"
)

func checksumOf(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// fakeRemote serves a single-commit repo over HTTP using the wire
// conventions this package defines, for exercising Pull end to end.
type fakeRemote struct {
	objects map[string][]byte // "<checksum>.<ext>" -> bytes
	refs    map[string]string
}

func newFakeRemote(t *testing.T, refName, fileContents string) (*fakeRemote, string) {
	t.Helper()

	fr := &fakeRemote{objects: make(map[string][]byte), refs: make(map[string]string)}

	payload, err := EncodeFilez([]byte(fileContents))
	if err != nil {
		t.Fatalf("EncodeFilez: %v", err)
	}
	fileChecksum := checksumOf([]byte(fileContents))
	fr.objects[fileChecksum+".filez"] = payload

	tree := DirTree{Files: []DirTreeFile{{Name: "metadata", Checksum: fileChecksum}}}
	treeBytes, _ := json.Marshal(tree)
	treeChecksum := checksumOf(treeBytes)
	fr.objects[treeChecksum+".dirtree"] = treeBytes

	commit := Commit{Tree: treeChecksum, Subject: "initial"}
	commitBytes, _ := json.Marshal(commit)
	commitChecksum := checksumOf(commitBytes)
	fr.objects[commitChecksum+".commit"] = commitBytes

	fr.refs[refName] = commitChecksum

	return fr, commitChecksum
}

func (fr *fakeRemote) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/refs/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/refs/")
		checksum, ok := fr.refs[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(checksum))
	})
	mux.HandleFunc("/refs-list", func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		for name, checksum := range fr.refs {
			sb.WriteString(name + "\t" + checksum + "\n")
		}
		w.Write([]byte(sb.String()))
	})
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("opaque-summary"))
	})
	mux.HandleFunc("/objects/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/objects/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		if data, ok := fr.objects[parts[0]+parts[1]]; ok {
			w.Write(data)
			return
		}
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func TestPullAndReadCommit(t *testing.T) {
	fr, commitChecksum := newFakeRemote(t, "app/com.example.App/x86_64/stable", "hello metadata")
	srv := fr.server()
	defer srv.Close()

	repo, err := EnsureInit(t.TempDir(), ModeBareUser)
	if err != nil {
		t.Fatalf("EnsureInit: %v", err)
	}
	if err := repo.RemoteAdd("origin", srv.URL, "Test Remote", true); err != nil {
		t.Fatalf("RemoteAdd: %v", err)
	}

	fetcher := remotefetch.New()
	ctx := context.Background()

	if err := repo.Pull(ctx, fetcher, "origin", []string{"app/com.example.App/x86_64/stable"}, nil); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	got, err := repo.ResolveRev("origin:app/com.example.App/x86_64/stable", false)
	if err != nil {
		t.Fatalf("ResolveRev: %v", err)
	}
	if got != commitChecksum {
		t.Errorf("ResolveRev = %s, want %s", got, commitChecksum)
	}

	commit, err := repo.ReadCommit(got)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	tree, err := repo.ReadDirTree(commit.Tree)
	if err != nil {
		t.Fatalf("ReadDirTree: %v", err)
	}
	if len(tree.Files) != 1 || tree.Files[0].Name != "metadata" {
		t.Fatalf("tree.Files = %+v", tree.Files)
	}

	data, err := repo.ReadFile(tree.Files[0].Checksum)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello metadata" {
		t.Errorf("ReadFile = %q, want %q", data, "hello metadata")
	}
}

func TestResolveRevAllowMissing(t *testing.T) {
	repo, err := EnsureInit(t.TempDir(), ModeBareUser)
	if err != nil {
		t.Fatalf("EnsureInit: %v", err)
	}

	got, err := repo.ResolveRev("origin:app/com.example.App/x86_64/stable", true)
	if err != nil {
		t.Fatalf("ResolveRev allowMissing: %v", err)
	}
	if got != "" {
		t.Errorf("ResolveRev = %q, want empty", got)
	}

	if _, err := repo.ResolveRev("origin:app/com.example.App/x86_64/stable", false); err == nil {
		t.Error("ResolveRev: expected error when allowMissing=false")
	}
}

func TestCheckoutTree(t *testing.T) {
	fr, commitChecksum := newFakeRemote(t, "app/com.example.App/x86_64/stable", "payload bytes")
	srv := fr.server()
	defer srv.Close()

	repoDir := t.TempDir()
	repo, err := EnsureInit(repoDir, ModeBareUser)
	if err != nil {
		t.Fatalf("EnsureInit: %v", err)
	}
	if err := repo.RemoteAdd("origin", srv.URL, "", true); err != nil {
		t.Fatalf("RemoteAdd: %v", err)
	}

	fetcher := remotefetch.New()
	ctx := context.Background()
	if err := repo.Pull(ctx, fetcher, "origin", []string{commitChecksum}, nil); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	commit, err := repo.ReadCommit(commitChecksum)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "checkout")
	if err := repo.CheckoutTree(ctx, ModeBareUser, true, dest, commit.Tree, ""); err != nil {
		t.Fatalf("CheckoutTree: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "metadata"))
	if err != nil {
		t.Fatalf("reading checked-out file: %v", err)
	}
	if string(data) != "payload bytes" {
		t.Errorf("checked-out content = %q", data)
	}

	if err := repo.CheckoutTree(ctx, ModeBareUser, true, dest, commit.Tree, ""); err == nil {
		t.Error("CheckoutTree: expected error on second checkout to same dest with noOverwrite")
	}
}

func TestPruneRemovesUnreachable(t *testing.T) {
	repo, err := EnsureInit(t.TempDir(), ModeBareUser)
	if err != nil {
		t.Fatalf("EnsureInit: %v", err)
	}

	orphan := []byte(`{"tree":"0000000000000000000000000000000000000000000000000000000000000000"}`)
	orphanChecksum := checksumOf(orphan)
	if err := repo.writeObjectAtomic(orphanChecksum, "commit", orphan); err != nil {
		t.Fatalf("writeObjectAtomic: %v", err)
	}

	pruned, _, err := repo.Prune(true, 0)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Prune pruned = %d, want 1", pruned)
	}
	if repo.HasObject(orphanChecksum, "commit") {
		t.Error("orphan commit object still present after prune")
	}
}

func TestDecodeFilezRoundTrip(t *testing.T) {
	payload := []byte("round trip content")
	encoded, err := EncodeFilez(payload)
	if err != nil {
		t.Fatalf("EncodeFilez: %v", err)
	}
	decoded, err := DecodeFilez(encoded)
	if err != nil {
		t.Fatalf("DecodeFilez: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Errorf("DecodeFilez = %q, want %q", decoded, payload)
	}
}

func TestDecodeFilezTruncated(t *testing.T) {
	if _, err := DecodeFilez([]byte{0, 0}); err == nil {
		t.Error("DecodeFilez: expected error on truncated input")
	}
}
