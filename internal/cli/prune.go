// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"
)

func newPruneCmd(ro *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete objects no longer reachable from any ref",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			count, freed, err := s.Prune()
			if err != nil {
				return err
			}
			ro.logf("pruned %d objects, freed %d bytes", count, freed)
			return nil
		},
	}
}

func newCleanupRemovedCmd(ro *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-removed",
		Short: "Delete staged checkouts whose liveness lock is no longer held",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			return s.CleanupRemoved()
		},
	}
}
