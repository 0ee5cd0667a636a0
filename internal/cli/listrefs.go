// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boxkit/dstore/pkg/ref"
)

func newListRefsCmd(ro *RootOpts) *cobra.Command {
	var kind string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list-refs",
		Short: "List deployed refs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}

			k := ref.Kind(kind)
			if k != ref.KindApp && k != ref.KindRuntime {
				return fmt.Errorf("invalid --kind %q (want %q or %q)", kind, ref.KindApp, ref.KindRuntime)
			}

			if activeOnly {
				names, err := s.ActiveNames(k, "")
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			refs, err := s.ListRefs(k)
			if err != nil {
				return err
			}
			for _, r := range refs {
				fmt.Fprintln(cmd.OutOrStdout(), r.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(ref.KindApp), `"app" or "runtime"`)
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "list only names with an active deployment")
	return cmd
}
