// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RunTriggers enumerates regular *.trigger files under the store's trigger
// directory and spawns the trigger helper for each, working directory "/".
// A trigger's non-zero exit or spawn failure is logged and ignored; it
// never fails the caller.
func (s *Store) RunTriggers() error {
	entries, err := os.ReadDir(s.TriggersPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("dstore: listing triggers: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".trigger") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		triggerPath := filepath.Join(s.TriggersPath(), e.Name())
		cmd := exec.Command(TriggerHelperPath, "-a", s.Base, "-e", "-F", "/usr", triggerPath)
		cmd.Dir = "/"
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "dstore: trigger %s failed: %v\n", triggerPath, err)
		}
	}
	return nil
}
