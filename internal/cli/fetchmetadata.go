// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchMetadataCmd(ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch-metadata <remote> <commit>",
		Short: "Fetch and print a commit's metadata file without deploying it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			data, err := s.FetchMetadata(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
