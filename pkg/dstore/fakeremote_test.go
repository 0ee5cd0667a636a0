// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/boxkit/dstore/pkg/objrepo"
)

// fakeRepoBuilder assembles an in-memory object tree and serves it over
// HTTP using the wire conventions pkg/objrepo consumes, so Deploy-level
// tests can pull from a realistic remote without a real ostree-like
// daemon.
type fakeRepoBuilder struct {
	objects map[string][]byte
	refs    map[string]string
}

func newFakeRepoBuilder() *fakeRepoBuilder {
	return &fakeRepoBuilder{objects: make(map[string][]byte), refs: make(map[string]string)}
}

func checksumOf(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// node is either a []byte (file content) or a map[string]node (directory).
type node any

func (b *fakeRepoBuilder) buildDir(tree map[string]node) string {
	var dt objrepo.DirTree

	names := make([]string, 0, len(tree))
	for name := range tree {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := tree[name].(type) {
		case []byte:
			fileChecksum := checksumOf(v)
			payload, err := objrepo.EncodeFilez(v)
			if err != nil {
				panic(err)
			}
			b.objects[fileChecksum+".filez"] = payload
			dt.Files = append(dt.Files, objrepo.DirTreeFile{Name: name, Checksum: fileChecksum})
		case map[string]node:
			subChecksum := b.buildDir(v)
			dt.Dirs = append(dt.Dirs, objrepo.DirTreeDir{Name: name, Tree: subChecksum})
		default:
			panic("fakeRepoBuilder: unsupported node type")
		}
	}

	data, err := json.Marshal(dt)
	if err != nil {
		panic(err)
	}
	checksum := checksumOf(data)
	b.objects[checksum+".dirtree"] = data
	return checksum
}

// addCommit builds tree and a commit pointing at it, registers refName (if
// non-empty) and returns the commit checksum.
func (b *fakeRepoBuilder) addCommit(refName string, tree map[string]node) string {
	treeChecksum := b.buildDir(tree)
	commit := objrepo.Commit{Tree: treeChecksum, Subject: "test commit"}
	data, err := json.Marshal(commit)
	if err != nil {
		panic(err)
	}
	commitChecksum := checksumOf(data)
	b.objects[commitChecksum+".commit"] = data
	if refName != "" {
		b.refs[refName] = commitChecksum
	}
	return commitChecksum
}

func (b *fakeRepoBuilder) server(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/refs/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/refs/")
		checksum, ok := b.refs[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(checksum))
	})
	mux.HandleFunc("/refs-list", func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		for name, checksum := range b.refs {
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
		if data, ok := b.objects[parts[0]+parts[1]]; ok {
			w.Write(data)
			return
		}
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
