// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boxkit/dstore/internal/progress"
	"github.com/boxkit/dstore/pkg/objrepo"
)

func newPullCmd(ro *RootOpts) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "pull <remote> <ref-or-commit>...",
		Short: "Fetch refs or commits from a remote into the local object store",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}

			var progressFn func(objrepo.ProgressEvent)
			if watch {
				b := progress.NewBroadcaster()
				addr, shutdown, err := b.ListenAndServe("127.0.0.1:0")
				if err != nil {
					return err
				}
				defer shutdown()
				ro.logf("watch this pull at ws://%s/progress", addr)
				progressFn = b.Publish
			} else if ro.Verbose {
				progressFn = func(ev objrepo.ProgressEvent) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%d bytes)\n", ev.Phase, ev.Checksum, ev.Bytes)
				}
			}

			return s.Pull(context.Background(), args[0], args[1:], progressFn)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "expose pull progress over a local websocket")
	return cmd
}
