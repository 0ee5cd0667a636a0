// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"
)

func newUpdateExportsCmd(ro *RootOpts) *cobra.Command {
	var changedApp string

	cmd := &cobra.Command{
		Use:   "update-exports",
		Short: "Refresh the exports aggregation tree and run triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			return s.UpdateExports(changedApp)
		},
	}
	cmd.Flags().StringVar(&changedApp, "app", "", "app whose export tree changed (mirrored before pruning and triggering)")
	return cmd
}
