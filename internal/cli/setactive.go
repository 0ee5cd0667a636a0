// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/boxkit/dstore/pkg/ref"
)

func newSetActiveCmd(ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-active <kind>/<name>/<arch>/<branch> [commit]",
		Short: "Repoint a ref's active symlink, or clear it if no commit is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ref.Parse(args[0])
			if err != nil {
				return err
			}
			var checksum string
			if len(args) == 2 {
				checksum = args[1]
			}
			s, err := ro.Store()
			if err != nil {
				return err
			}
			if err := s.SetActive(r, checksum); err != nil {
				return err
			}
			ro.logf("active(%s) = %q", r, checksum)
			return nil
		},
	}
	return cmd
}
