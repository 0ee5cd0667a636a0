// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package objrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/ini.v1"
)

const configFileName = "config"

// writeConfig persists the repo-level config file, one [remote "name"]
// section per remote plus the [core] section.
func writeConfig(path string, remotes map[string]*Remote) error {
	cfg := ini.Empty()
	core, err := cfg.NewSection("core")
	if err != nil {
		return err
	}
	core.Key("repo-version").SetValue("1")

	names := make([]string, 0, len(remotes))
	for name := range remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rem := remotes[name]
		sec, err := cfg.NewSection(fmt.Sprintf("remote %q", name))
		if err != nil {
			return err
		}
		sec.Key("url").SetValue(rem.URL)
		if rem.Title != "" {
			sec.Key("xa.title").SetValue(rem.Title)
		}
		sec.Key("xa.noenumerate").SetValue(boolStr(rem.NoEnumerate))
	}

	return cfg.SaveTo(filepath.Join(path, configFileName))
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (r *Repo) loadRemotes() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := ini.Load(filepath.Join(r.Path, configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			r.remotes = make(map[string]*Remote)
			return nil
		}
		return fmt.Errorf("objrepo: loading config: %w", err)
	}

	remotes := make(map[string]*Remote)
	for _, sec := range cfg.Sections() {
		var name string
		if _, err := fmt.Sscanf(sec.Name(), "remote %q", &name); err != nil {
			continue
		}
		remotes[name] = &Remote{
			Name:        name,
			URL:         sec.Key("url").String(),
			Title:       sec.Key("xa.title").String(),
			NoEnumerate: sec.Key("xa.noenumerate").MustBool(true),
		}
	}
	r.remotes = remotes
	return nil
}

// RemoteAdd registers or replaces a remote and persists the config file.
func (r *Repo) RemoteAdd(name, url, title string, noEnumerate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remotes[name] = &Remote{Name: name, URL: url, Title: title, NoEnumerate: noEnumerate}
	if err := os.MkdirAll(filepath.Join(r.Path, "refs", "remotes", name), 0o755); err != nil {
		return fmt.Errorf("objrepo: creating refs dir for remote %s: %w", name, err)
	}
	return writeConfig(r.Path, r.remotes)
}

// RemoteList returns configured remotes sorted by name.
func (r *Repo) RemoteList() []*Remote {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Remote, 0, len(r.remotes))
	for _, rem := range r.remotes {
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RemoteGetURL returns the base URL configured for name.
func (r *Repo) RemoteGetURL(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.remotes[name]
	if !ok {
		return "", fmt.Errorf("objrepo: unknown remote %q", name)
	}
	return rem.URL, nil
}

// GetConfig returns the raw repo config file, for callers (e.g. the CLI)
// that want to display it.
func (r *Repo) GetConfig() (*ini.File, error) {
	return ini.Load(filepath.Join(r.Path, configFileName))
}
