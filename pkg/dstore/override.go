// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// OverridePath returns the path to appID's override key-file document
// within this store's scope.
func (s *Store) OverridePath(appID string) string {
	return filepath.Join(s.OverridesPath(), appID)
}

// SaveOverrideKeyFile persists kf as appID's override document for this
// store's scope.
func (s *Store) SaveOverrideKeyFile(appID string, kf *ini.File) error {
	if err := os.MkdirAll(s.OverridesPath(), 0o755); err != nil {
		return fmt.Errorf("dstore: creating overrides dir: %w", err)
	}
	if err := kf.SaveTo(s.OverridePath(appID)); err != nil {
		return fmt.Errorf("dstore: saving override for %s: %w", appID, err)
	}
	return nil
}

// LoadOverrideKeyFile loads appID's override document for this store's
// scope. A missing document is not an error: it yields an empty key-file.
func (s *Store) LoadOverrideKeyFile(appID string) (*ini.File, error) {
	return loadKeyFileOrEmpty(s.OverridePath(appID))
}

func loadKeyFileOrEmpty(path string) (*ini.File, error) {
	kf, err := ini.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ini.Empty(), nil
		}
		return nil, fmt.Errorf("dstore: loading key-file %s: %w", path, err)
	}
	return kf, nil
}

// MergeOverrides layers userKF's sections and keys over systemKF's,
// returning a new key-file. system is the baseline; a key present in both
// takes its value from user.
func MergeOverrides(systemKF, userKF *ini.File) (*ini.File, error) {
	merged := ini.Empty()

	for _, src := range []*ini.File{systemKF, userKF} {
		if src == nil {
			continue
		}
		for _, sec := range src.Sections() {
			dest, err := merged.NewSection(sec.Name())
			if err != nil {
				dest = merged.Section(sec.Name())
			}
			for _, key := range sec.Keys() {
				dest.Key(key.Name()).SetValue(key.Value())
			}
		}
	}
	return merged, nil
}

// LoadMergedOverrides loads appID's override document from both the system
// and user stores and merges them, system first, user last.
func LoadMergedOverrides(systemStore, userStore *Store, appID string) (*ini.File, error) {
	systemKF, err := systemStore.LoadOverrideKeyFile(appID)
	if err != nil {
		return nil, err
	}
	userKF, err := userStore.LoadOverrideKeyFile(appID)
	if err != nil {
		return nil, err
	}
	return MergeOverrides(systemKF, userKF)
}
