// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package dstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"gopkg.in/ini.v1"
)

// quoteAllowedChars are the characters a substituted Exec= token may
// contain without being shell-quoted.
const quoteAllowedChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_.%=:/@-"

func needsQuote(tok string) bool {
	for _, r := range tok {
		if !strings.ContainsRune(quoteAllowedChars, r) {
			return true
		}
	}
	return false
}

// maybeQuote single-quotes tok iff it contains a character outside the
// conservative allowed set, escaping embedded single quotes POSIX-style.
func maybeQuote(tok string) string {
	if !needsQuote(tok) {
		return tok
	}
	return "'" + strings.ReplaceAll(tok, "'", `'\''`) + "'"
}

// rewriteLauncherExec walks export recursively and transforms every
// .desktop and .service file's Exec= line(s) to invoke the sandbox
// launcher, per the deploy step that runs this over a checkout's export/
// subtree. Any file not namespaced under appName, or of a type other than
// directory/.desktop/.service, is deleted. A .service file's D-Bus service
// name mismatching its basename is a fatal error.
func (s *Store) rewriteLauncherExec(export, appName, arch, branch string) error {
	return rewriteExportDir(export, appName, arch, branch)
}

func rewriteExportDir(dir, appName, arch, branch string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("dstore: reading export dir %s: %w", dir, err)
	}

	visited := make(map[string]bool, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if visited[name] {
			continue
		}
		visited[name] = true

		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}

		switch {
		case info.IsDir():
			if err := rewriteExportDir(path, appName, arch, branch); err != nil {
				return err
			}
		case !info.Mode().IsRegular():
			os.Remove(path)
			fmt.Fprintf(os.Stderr, "dstore: removing non-regular export entry %s\n", path)
		case !strings.HasPrefix(name, appName):
			os.Remove(path)
			fmt.Fprintf(os.Stderr, "dstore: removing non-namespaced export file %s\n", path)
		case strings.HasSuffix(name, ".desktop"):
			if err := rewriteKeyFile(path, appName, arch, branch, false); err != nil {
				return err
			}
		case strings.HasSuffix(name, ".service"):
			if err := rewriteKeyFile(path, appName, arch, branch, true); err != nil {
				return err
			}
		default:
			os.Remove(path)
			fmt.Fprintf(os.Stderr, "dstore: removing unrecognized export file %s\n", path)
		}
	}
	return nil
}

func rewriteKeyFile(path, appName, arch, branch string, isService bool) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true, PreserveSurroundedQuote: true}, path)
	if err != nil {
		return fmt.Errorf("dstore: parsing key-file %s: %w", path, err)
	}

	if isService {
		base := strings.TrimSuffix(filepath.Base(path), ".service")
		name := cfg.Section("D-BUS Service").Key("Name").String()
		if name != base {
			return fmt.Errorf("%w: %s: Name=%q, want %q", ErrServiceNameMismatch, path, name, base)
		}
	}

	for _, sec := range cfg.Sections() {
		sec.DeleteKey("TryExec")
		sec.DeleteKey("X-GNOME-Bugzilla-ExtraInfoScript")

		if !sec.HasKey("Exec") {
			continue
		}
		rewritten, err := rewriteExecLine(sec.Key("Exec").String(), appName, arch, branch)
		if err != nil {
			return fmt.Errorf("dstore: rewriting Exec in %s: %w", path, err)
		}
		sec.Key("Exec").SetValue(rewritten)
	}

	tmp := path + ".dstore-tmp"
	if err := cfg.SaveTo(tmp); err != nil {
		return fmt.Errorf("dstore: writing rewritten %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("dstore: committing rewritten %s: %w", path, err)
	}
	return nil
}

// rewriteExecLine implements spec §4.4's Exec transformation policy.
func rewriteExecLine(original, appName, arch, branch string) (string, error) {
	var cmd0 string
	var rest []string

	if tokens, err := shellwords.Parse(original); err == nil && len(tokens) > 0 {
		cmd0 = tokens[0]
		rest = tokens[1:]
	}

	var sb strings.Builder
	sb.WriteString(LauncherPath)
	sb.WriteString(" run --branch=")
	sb.WriteString(branch)
	sb.WriteString(" --arch=")
	sb.WriteString(arch)
	if cmd0 != "" {
		sb.WriteString(" --command=")
		sb.WriteString(maybeQuote(cmd0))
	}
	sb.WriteString(" ")
	sb.WriteString(maybeQuote(appName))
	for _, tok := range rest {
		sb.WriteString(" ")
		sb.WriteString(maybeQuote(tok))
	}
	return sb.String(), nil
}
