/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"fancyscript/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		search string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			entries, err := h.Search(cmd.Context(), search, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no exports recorded")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSCRIPT\tFORMAT\tPAGES\tPATH")
			for _, e := range entries {
				name := e.Script
				if name == "" {
					name = "(unnamed)"
				}
				format := e.Format
				if e.Remote {
					format += " (remote)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.Time.Local().Format(time.DateTime), name, format, e.Pages, e.Path)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&search, "search", "", "full-text search over script, author and characters")
	f.IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration and manage the export service token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := yaml.Marshal(a.cfg)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			},
		},
		&cobra.Command{
			Use:   "set-token <token>",
			Short: "Store the export service token in the OS keychain",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tok := strings.TrimSpace(args[0])
				if tok == "" {
					return fmt.Errorf("token is empty")
				}
				if err := a.saveConfig(tok); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "token stored")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete-token",
			Short: "Remove the export service token from the OS keychain",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.DeleteToken(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "token deleted")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) saveConfig(token string) error {
	if p := a.cfg.Path(); p != "" {
		return config.SaveTo(p, a.cfg, token)
	}
	return config.Save(a.cfg, token)
}
