// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/ini.v1"
)

func newOverrideCmd(ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Inspect or edit per-app override key-file documents",
	}
	cmd.AddCommand(newOverrideGetCmd(ro), newOverrideSetCmd(ro))
	return cmd
}

func newOverrideGetCmd(ro *RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "get <app-id>",
		Short: "Print an app's override document for this store's scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			kf, err := s.LoadOverrideKeyFile(args[0])
			if err != nil {
				return err
			}
			for _, sec := range kf.Sections() {
				if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", sec.Name())
				for _, key := range sec.Keys() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key.Name(), key.Value())
				}
			}
			return nil
		},
	}
}

func newOverrideSetCmd(ro *RootOpts) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "set <app-id> <key>=<value>",
		Short: "Set one key in an app's override document for this store's scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Store()
			if err != nil {
				return err
			}
			key, value, ok := splitKV(args[1])
			if !ok {
				return fmt.Errorf("expected <key>=<value>, got %q", args[1])
			}

			kf, err := s.LoadOverrideKeyFile(args[0])
			if err != nil {
				return err
			}
			sec, err := kf.NewSection(section)
			if err != nil {
				sec = kf.Section(section)
			}
			sec.Key(key).SetValue(value)

			return s.SaveOverrideKeyFile(args[0], kf)
		},
	}
	cmd.Flags().StringVar(&section, "section", "Environment", "key-file section to write into")
	return cmd
}

func splitKV(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
