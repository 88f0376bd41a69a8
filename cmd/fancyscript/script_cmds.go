/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"fancyscript/internal/domain"
	"fancyscript/internal/jinx"
	"fancyscript/internal/script"

	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newResolveCmd(a *app) *cobra.Command {
	var parsedOnly bool
	cmd := &cobra.Command{
		Use:   "resolve <script.json|->",
		Short: "Resolve a script and print the sheet model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			if parsedOnly {
				p, _ := s.Parsed()
				return writeJSON(cmd.OutOrStdout(), p)
			}
			m, err := s.Model()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().BoolVar(&parsedOnly, "parsed", false, "print the resolved script instead of the sheet model")
	return cmd
}

func newJinxesCmd(a *app) *cobra.Command {
	var columns bool
	cmd := &cobra.Command{
		Use:   "jinxes <script.json|->",
		Short: "List the jinxes between characters on a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			js := s.Jinxes()
			if len(js) == 0 {
				fmt.Fprintln(out, "no jinxes")
				return nil
			}
			if !columns {
				printJinxes(out, js)
				return nil
			}
			left, right := jinx.Columns(js)
			fmt.Fprintln(out, "# left")
			printJinxes(out, left)
			if len(right) > 0 {
				fmt.Fprintln(out, "# right")
				printJinxes(out, right)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&columns, "columns", false, "split the list the way the sheet lays it out")
	return cmd
}

func printJinxes(w io.Writer, js []domain.Jinx) {
	for _, j := range js {
		fmt.Fprintf(w, "%s + %s: %s\n", j.A, j.B, j.Reason)
	}
}

func newNightCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "night <script.json|->",
		Short: "Print the first night and other nights wake order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			p, _ := s.Parsed()
			out := cmd.OutOrStdout()
			printNight(out, "First night", p.NightOrder.First)
			printNight(out, "Other nights", p.NightOrder.Other)
			return nil
		},
	}
}

func printNight(w io.Writer, title string, entries []domain.NightEntry) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (nobody)")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "  %2d. %s", i+1, e.Name)
		if e.Reminder != "" {
			fmt.Fprintf(w, " - %s", e.Reminder)
		}
		fmt.Fprintln(w)
	}
}

func newSortedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sorted <script.json|->",
		Short: "Report whether a script is already in sorted order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			if s.IsSorted(script.TeamSorter(a.catalog)) {
				fmt.Fprintln(cmd.OutOrStdout(), "sorted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "not sorted")
			}
			return nil
		},
	}
}

func newSortCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "sort <script.json|->",
		Short: "Sort a script and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			if err := s.Sort(cmd.Context(), script.TeamSorter(a.catalog)); err != nil {
				return err
			}
			raw, _ := s.Raw()
			data, err := script.Serialize(raw)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write sorted script: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "sorted script written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the sorted script to this file")
	return cmd
}

// teamSummary renders "townsfolk 13, outsider 4, ..." for non-empty teams.
func teamSummary(g domain.GroupedCharacters) string {
	var parts []string
	for _, t := range domain.TeamOrder {
		if n := len(g.Get(t)); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", t, n))
		}
	}
	return strings.Join(parts, ", ")
}
