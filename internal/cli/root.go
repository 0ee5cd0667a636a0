// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package cli assembles the developer-facing dstore command tree. This is
// glue over pkg/dstore for exercising the library end to end; it is not
// the sandboxed-app launcher's own front end.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boxkit/dstore/pkg/dstore"
)

// RootOpts holds flags shared by every subcommand.
type RootOpts struct {
	Base    string
	Scope   string
	JSONOut bool
	Quiet   bool
	Verbose bool
}

// Store resolves RootOpts into a concrete Store instance.
func (ro *RootOpts) Store() (*dstore.Store, error) {
	var scope dstore.Scope
	switch ro.Scope {
	case "", "user":
		scope = dstore.ScopeUser
	case "system":
		scope = dstore.ScopeSystem
	default:
		return nil, fmt.Errorf("invalid --scope %q (want \"user\" or \"system\")", ro.Scope)
	}
	return dstore.Singleton(ro.Base, scope), nil
}

func (ro *RootOpts) logf(format string, args ...any) {
	if ro.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Execute builds and runs the root command.
func Execute(version string) error {
	ro := &RootOpts{}

	root := &cobra.Command{
		Use:     "dstore",
		Short:   "Inspect and manage a local application deployment store",
		Version: version,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ro.Base, "base", defaultBase(), "store base directory")
	flags.StringVar(&ro.Scope, "scope", "user", `store scope: "user" or "system"`)
	flags.BoolVar(&ro.JSONOut, "json", false, "accepted but ignored: no subcommand emits JSON")
	flags.BoolVar(&ro.Quiet, "quiet", false, "suppress informational output")
	flags.BoolVar(&ro.Verbose, "verbose", false, "enable verbose output")

	root.AddCommand(
		newRemoteCmd(ro),
		newPullCmd(ro),
		newDeployCmd(ro),
		newUndeployCmd(ro),
		newListRefsCmd(ro),
		newSetActiveCmd(ro),
		newPruneCmd(ro),
		newCleanupRemovedCmd(ro),
		newUpdateExportsCmd(ro),
		newOverrideCmd(ro),
		newFetchMetadataCmd(ro),
	)

	return root.Execute()
}

func defaultBase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dstore"
	}
	return home + "/.local/share/dstore"
}
