// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoteCmd(ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage configured object-store remotes",
	}
	cmd.AddCommand(newRemoteAddCmd(ro), newRemoteListCmd(ro))
	return cmd
}

func newRemoteAddCmd(ro *RootOpts) *cobra.Command {
	var title string
	var noEnumerate bool

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register a remote object store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			repo, err := s.EnsureRepo()
			if err != nil {
				return err
			}
			if err := repo.RemoteAdd(args[0], args[1], title, noEnumerate); err != nil {
				return err
			}
			ro.logf("added remote %s -> %s", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "human-readable remote title")
	cmd.Flags().BoolVar(&noEnumerate, "no-enumerate", true, "hide this remote from enumeration")
	return cmd
}

func newRemoteListCmd(ro *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			repo, err := s.EnsureRepo()
			if err != nil {
				return err
			}
			for _, r := range repo.RemoteList() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Name, r.URL)
			}
			return nil
		},
	}
}

