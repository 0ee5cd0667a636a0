// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/boxkit/dstore/internal/tui"
	"github.com/boxkit/dstore/pkg/ref"
)

func newDeployCmd(ro *RootOpts) *cobra.Command {
	var checksum string
	var origin string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "deploy <kind>/<name>/<arch>/<branch>",
		Short: "Check out a commit for a ref and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ref.Parse(args[0])
			if err != nil {
				return err
			}

			s, err := ro.Store()
			if err != nil {
				return err
			}

			if origin != "" {
				if err := s.SetOrigin(r, origin); err != nil {
					return err
				}
			}

			if checksum == "" && interactive {
				if !term.IsTerminal(int(os.Stdout.Fd())) {
					return fmt.Errorf("deploy -i requires an interactive terminal")
				}
				deployed, err := s.ListDeployed(r)
				if err != nil {
					return err
				}
				candidates := make([]tui.Candidate, len(deployed))
				for i, c := range deployed {
					candidates[i] = tui.Candidate{Label: c, Value: c}
				}
				choice, err := tui.RunPicker(fmt.Sprintf("Select a commit to deploy for %s", r), candidates)
				if err != nil {
					return err
				}
				if choice == "" {
					return fmt.Errorf("deploy cancelled")
				}
				checksum = choice
			}

			if err := s.Deploy(context.Background(), r, checksum); err != nil {
				return err
			}
			ro.logf("deployed %s", r)
			return nil
		},
	}
	cmd.Flags().StringVar(&checksum, "commit", "", "commit checksum to deploy (resolved from origin if omitted)")
	cmd.Flags().StringVar(&origin, "origin", "", "remote name to record as this ref's origin before deploying")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick among already-pulled commits interactively")
	return cmd
}
