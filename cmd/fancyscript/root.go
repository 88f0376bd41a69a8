/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"fancyscript/internal/catalog"
	"fancyscript/internal/config"
	"fancyscript/internal/crash"
	"fancyscript/internal/domain"
	applog "fancyscript/internal/log"
	"fancyscript/internal/script"
	"fancyscript/internal/sheet"
	"fancyscript/internal/storage"
	"fancyscript/internal/telemetry"

	"github.com/spf13/cobra"
)

// errReported marks errors whose message was already printed for the user.
var errReported = errors.New("reported")

// app carries the state shared by every command once setup has run.
type app struct {
	crash *crash.Info

	configPath string
	logLevel   string
	color      string
	oldJinxes  bool
	noJinxes   bool
	noAuthor   bool
	minorWords bool

	cfg      config.AppConfig
	token    string
	catalog  *catalog.Catalog
	jinxes   catalog.JinxTable
	resolver *script.Resolver
	log      *slog.Logger
}

func newApp(info *crash.Info) *app {
	if info == nil {
		info = &crash.Info{}
	}
	return &app{crash: info}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "fancyscript",
		Short:         "Render Blood on the Clocktower scripts into printable character sheets",
		Long:          "fancyscript resolves a custom script, derives its jinxes and night order, and exports a captured sheet as a paginated document.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/fancyscript/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.color, "color", "", "accent color, overrides options.color")
	pf.BoolVar(&a.oldJinxes, "old-jinxes", false, "use the old jinx data set")
	pf.BoolVar(&a.noJinxes, "no-jinxes", false, "hide the jinx block")
	pf.BoolVar(&a.noAuthor, "no-author", false, "hide the author line")
	pf.BoolVar(&a.minorWords, "minor-words", false, "shrink minor words in the title")

	root.AddCommand(
		newResolveCmd(a),
		newJinxesCmd(a),
		newNightCmd(a),
		newSortedCmd(a),
		newSortCmd(a),
		newThemeCmd(a),
		newPaginateCmd(a),
		newExportCmd(a),
		newRemoteCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the config, initializes logging and telemetry and loads the
// character data.
func (a *app) setup(cmd *cobra.Command) error {
	a.crash.Command = cmd.CommandPath()

	var (
		cfg   config.AppConfig
		token string
		err   error
	)
	if a.configPath != "" {
		cfg, token, err = config.LoadFrom(a.configPath)
	} else {
		cfg, token, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.cfg, a.token = cfg, token
	if dir, err := cfg.ResolveHistoryDir(); err == nil {
		a.crash.DataDir = dir
	}

	lvl := cfg.Logging.Level
	if a.logLevel != "" {
		lvl = a.logLevel
	}
	applog.Init(applog.Options{
		Level:     lvl,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Out:       cmd.ErrOrStderr(),
	})
	a.log = applog.WithComponent("cli")

	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	telemetry.NewDefault(tc)

	if err := a.loadData(); err != nil {
		return err
	}
	a.resolver = script.NewResolver(a.catalog)
	a.log.Debug("setup done", slog.String("cmd", a.crash.Command), slog.Int("characters", a.catalog.Len()))
	return nil
}

func (a *app) loadData() error {
	var err error
	if f := a.cfg.Data.CharactersFile; f != "" {
		a.catalog, err = catalog.LoadFile(f)
	} else {
		a.catalog, err = catalog.Default()
	}
	if err != nil {
		return fmt.Errorf("load characters: %w", err)
	}
	if a.jinxes, err = catalog.DefaultJinxes(); err != nil {
		return fmt.Errorf("load jinxes: %w", err)
	}
	if f := a.cfg.Data.JinxesFile; f != "" {
		if a.jinxes.Current, err = catalog.LoadJinxesFile(f); err != nil {
			return fmt.Errorf("load jinxes: %w", err)
		}
	}
	if f := a.cfg.Data.OldJinxesFile; f != "" {
		if a.jinxes.Old, err = catalog.LoadJinxesFile(f); err != nil {
			return fmt.Errorf("load old jinxes: %w", err)
		}
	}
	return nil
}

// options returns the configured options with the command line toggles applied.
func (a *app) options() domain.ScriptOptions {
	o := a.cfg.Options
	if a.color != "" {
		o.Color = a.color
	}
	if a.oldJinxes {
		o.UseOldJinxes = true
	}
	if a.noJinxes {
		o.ShowJinxes = false
	}
	if a.noAuthor {
		o.ShowAuthor = false
	}
	if a.minorWords {
		o.FormatMinorWords = true
	}
	return o
}

// loadSession reads path ("-" is stdin) into a new session and prints the
// resolve warnings to the command's stderr.
func (a *app) loadSession(ctx context.Context, cmd *cobra.Command, path string) (*sheet.Session, error) {
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return nil, err
	}
	s := sheet.NewSession(a.resolver, a.jinxes, domain.DefaultOptions())
	if err := s.SetOptions(a.options()); err != nil {
		return nil, err
	}
	warns, err := s.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, w := range warns {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}
	if p, ok := s.Parsed(); ok {
		a.crash.Script = p.Metadata.Name
	}
	return s, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return data, nil
}

// openHistory opens the export history, rebuilding it when damaged.
func (a *app) openHistory(ctx context.Context) (*storage.History, error) {
	dir, err := a.cfg.ResolveHistoryDir()
	if err != nil {
		return nil, err
	}
	h, rebuilt, err := storage.OpenOrRebuild(ctx, dir)
	if err != nil {
		return nil, err
	}
	if rebuilt {
		a.log.Warn("export history was damaged and has been rebuilt", slog.String("path", h.Path()))
	}
	return h, nil
}

// recordExport stores a finished export in the history and sends the usage
// event. History failures are logged only.
func (a *app) recordExport(ctx context.Context, parsed domain.ParsedScript, format, path string, pages int, remote bool) {
	ids := make([]string, 0, len(parsed.Characters))
	for _, c := range parsed.Characters {
		ids = append(ids, c.ID)
	}
	if h, err := a.openHistory(ctx); err != nil {
		a.log.WarnContext(ctx, "history unavailable", slog.Any("err", err))
	} else {
		defer func() { _ = h.Close() }()
		if _, err := h.Record(ctx, storage.Entry{
			Script:     parsed.Metadata.Name,
			Author:     parsed.Metadata.Author,
			Characters: ids,
			Format:     format,
			Path:       path,
			Pages:      pages,
			Remote:     remote,
		}); err != nil {
			a.log.WarnContext(ctx, "history record failed", slog.Any("err", err))
		}
	}

	teams := make(map[string]int)
	for _, t := range domain.TeamOrder {
		if n := len(parsed.Groups.Get(t)); n > 0 {
			teams[string(t)] = n
		}
	}
	telemetry.Default().ScriptExported(telemetry.ExportInfo{
		Script:     parsed.Metadata.Name,
		Characters: len(parsed.Characters),
		Teams:      teams,
		Format:     format,
		Pages:      pages,
		Remote:     remote,
	})
}

func flushTelemetry(ctx context.Context) {
	telemetry.Default().Flush(ctx)
}

func parseFormats(list []string) []string {
	var out []string
	for _, f := range list {
		for _, p := range strings.Split(f, ",") {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
