// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/boxkit/dstore/pkg/ref"
)

func newUndeployCmd(ro *RootOpts) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "undeploy <kind>/<name>/<arch>/<branch> <commit>",
		Short: "Remove a deployed checkout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ref.Parse(args[0])
			if err != nil {
				return err
			}
			s, err := ro.Store()
			if err != nil {
				return err
			}
			if err := s.Undeploy(r, args[1], force); err != nil {
				return err
			}
			ro.logf("undeployed %s at %s", r, args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete the checkout immediately regardless of liveness lock")
	return cmd
}
