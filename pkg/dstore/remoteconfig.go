// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RemoteEntry is one remote object store as recorded in the developer-
// facing remotes side file (not the repo's own config, which objrepo owns
// directly).
type RemoteEntry struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Title       string `yaml:"title,omitempty"`
	NoEnumerate bool   `yaml:"noEnumerate"`
}

// RemotesConfig is the on-disk shape of <config-dir>/dstore/remotes.yaml.
type RemotesConfig struct {
	Remotes []RemoteEntry `yaml:"remotes"`
}

// LoadRemotesConfig reads the remotes side file from configDir. A missing
// file yields an empty config, not an error.
func LoadRemotesConfig(configDir string) (*RemotesConfig, error) {
	path := filepath.Join(configDir, "remotes.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RemotesConfig{}, nil
		}
		return nil, fmt.Errorf("dstore: reading %s: %w", path, err)
	}

	var cfg RemotesConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("dstore: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to <config-dir>/dstore/remotes.yaml, creating configDir
// if necessary.
func (cfg *RemotesConfig) Save(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("dstore: creating config dir %s: %w", configDir, err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("dstore: encoding remotes config: %w", err)
	}
	path := filepath.Join(configDir, "remotes.yaml")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("dstore: writing %s: %w", path, err)
	}
	return nil
}

// Add appends or replaces the named remote in cfg.
func (cfg *RemotesConfig) Add(entry RemoteEntry) {
	for i, existing := range cfg.Remotes {
		if existing.Name == entry.Name {
			cfg.Remotes[i] = entry
			return
		}
	}
	cfg.Remotes = append(cfg.Remotes, entry)
}

// SyncRemotesConfig registers every remote in cfg with the store's object
// repo, so subsequent Pull/Deploy calls can resolve them by name.
func (s *Store) SyncRemotesConfig(cfg *RemotesConfig) error {
	repo, err := s.EnsureRepo()
	if err != nil {
		return err
	}
	for _, entry := range cfg.Remotes {
		if err := repo.RemoteAdd(entry.Name, entry.URL, entry.Title, entry.NoEnumerate); err != nil {
			return fmt.Errorf("dstore: syncing remote %s: %w", entry.Name, err)
		}
	}
	return nil
}
