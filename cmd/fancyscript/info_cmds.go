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
	"math/rand"
	"strconv"
	"time"

	"fancyscript/internal/color"
	"fancyscript/internal/export"
	"fancyscript/internal/version"

	"github.com/spf13/cobra"
)

func newThemeCmd(a *app) *cobra.Command {
	var random bool
	cmd := &cobra.Command{
		Use:   "theme [color]",
		Short: "Show the colors and icon filter derived from an accent color",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accent := a.options().Color
			switch {
			case random:
				accent = color.RandomColor(rand.New(rand.NewSource(time.Now().UnixNano())))
			case len(args) == 1:
				accent = args[0]
			}
			th, err := color.NewTheme(accent)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accent:  %s\n", th.Light)
			fmt.Fprintf(out, "dark:    %s\n", th.Dark)
			fmt.Fprintf(out, "filter:  %s\n", th.Filter.CSS())
			return nil
		},
	}
	cmd.Flags().BoolVar(&random, "random", false, "pick a random accent color")
	return cmd
}

func newPaginateCmd(a *app) *cobra.Command {
	var pageW, pageH float64
	cmd := &cobra.Command{
		Use:   "paginate <width-px> <height-px>",
		Short: "Show how a captured surface of the given size is split into pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("width: %w", err)
			}
			h, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("height: %w", err)
			}
			if pageW == 0 {
				pageW = a.cfg.Export.PageWidthMm
			}
			if pageH == 0 {
				pageH = a.cfg.Export.PageHeightMm
			}
			pages, err := export.Paginate(w, h, pageW, pageH)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d page(s), image %.2fx%.2f mm\n", len(pages), pages[0].ImageWidthMm, pages[0].ImageHeightMm)
			for _, p := range pages {
				fmt.Fprintf(out, "page %d: offset %.2f mm, visible %.2f mm, source rows %d-%d\n",
					p.Index+1, p.OffsetMm, p.VisibleHeightMm, p.SourceYPx, p.SourceYPx+p.SourceHeightPx)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&pageW, "page-width", 0, "page width in mm (default A4)")
	cmd.Flags().Float64Var(&pageH, "page-height", 0, "page height in mm (default A4)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// version needs no config or data
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fancyscript", version.String())
		},
	}
}
