/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fancyscript/internal/export"
	applog "fancyscript/internal/log"

	"github.com/spf13/cobra"
)

func (a *app) pageOptions() export.PageOptions {
	return export.PageOptions{
		PageWidthMm:  a.cfg.Export.PageWidthMm,
		PageHeightMm: a.cfg.Export.PageHeightMm,
		Background:   a.cfg.Export.Background,
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		surface string
		formats []string
		preset  string
		outDir  string
		dpi     int
		scale   float64
	)
	cmd := &cobra.Command{
		Use:   "export <script.json|->",
		Short: "Export a captured sheet image as PDF, PNG pages or a page archive",
		Long: "export slices the captured sheet image (--surface) into pages and writes them in the\n" +
			"requested formats. The script provides the document title and the file names.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if surface == "" {
				return errors.New("--surface is required")
			}
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			parsed, _ := s.Parsed()
			model, err := s.Model()
			if err != nil {
				return err
			}
			ctx := applog.ContextWithScript(cmd.Context(), parsed.Metadata.Name)
			l := applog.WithOperation(a.log, "export")

			var c export.Capturer = export.FileCapturer{Path: surface}
			if scale > 0 && scale != 1 {
				c = export.ScaledCapturer{Source: c, Scale: scale}
			}
			img, err := export.Capture(ctx, c)
			if err != nil {
				return err
			}

			if preset == "" {
				preset = a.cfg.Export.Preset
			}
			if outDir == "" {
				outDir = a.cfg.Export.OutDir
			}
			if dpi == 0 {
				dpi = a.cfg.Export.DPI
			}
			results, err := export.Batch(img, export.BatchOptions{
				Preset:      export.PresetName(preset),
				Formats:     parseFormats(formats),
				OutDir:      outDir,
				BaseName:    s.Filename(""),
				DPIOverride: dpi,
				Page:        a.pageOptions(),
				Title:       model.Title,
				Author:      parsed.Metadata.Author,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", model.Title, teamSummary(parsed.Groups))
			for _, r := range results {
				fmt.Fprintf(out, "%s: %d page(s)\n", r.Format, r.Pages)
				for _, p := range r.Paths {
					fmt.Fprintf(out, "  %s\n", p)
				}
				path := ""
				if len(r.Paths) > 0 {
					path = r.Paths[0]
				}
				a.recordExport(ctx, parsed, r.Format, path, r.Pages, false)
			}
			l.InfoContext(ctx, "export finished", slog.Int("formats", len(results)))
			flushTelemetry(ctx)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&surface, "surface", "", "captured sheet image (png, jpeg, gif, bmp, tiff, webp)")
	f.StringSliceVar(&formats, "format", nil, "output formats: pdf, png, zip (default from preset)")
	f.StringVar(&preset, "preset", "", "export preset: print or web")
	f.StringVar(&outDir, "out", "", "output directory")
	f.IntVar(&dpi, "dpi", 0, "raster resolution of PNG pages")
	f.Float64Var(&scale, "scale", 0, "resample the surface by this factor before export")
	return cmd
}

func newRemoteCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "remote <script.json|->",
		Short: "Render a script to PDF with the configured export service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Export.ServiceURL == "" {
				return errors.New("no export service configured: set export.service_url or FSG_EXPORT_URL")
			}
			s, err := a.loadSession(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			parsed, _ := s.Parsed()
			raw, _ := s.Raw()
			ctx := applog.ContextWithScript(cmd.Context(), parsed.Metadata.Name)

			client := export.NewClient(a.cfg.Export.ServiceURL, a.token, a.cfg.Export.Timeout())
			client.Origin = a.cfg.Export.Origin
			doc, err := client.Generate(ctx, export.NewRequest(raw, parsed.Metadata, s.Options()))
			if err != nil {
				var te *export.TransportError
				if errors.As(err, &te) {
					fmt.Fprintln(cmd.ErrOrStderr(), te.UserMessage())
					a.log.ErrorContext(ctx, "remote export failed", slog.Any("err", err))
					return errReported
				}
				return err
			}

			if output == "" {
				output = filepath.Join(a.cfg.Export.OutDir, s.Filename("pdf"))
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := os.WriteFile(output, doc, 0o644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			a.recordExport(ctx, parsed, export.FormatPDF, output, 0, true)
			flushTelemetry(ctx)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <out_dir>/<script>.pdf)")
	return cmd
}
