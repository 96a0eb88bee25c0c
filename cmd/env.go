package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kamusis/aipkg/internal/cache"
	"github.com/kamusis/aipkg/internal/config"
	"github.com/kamusis/aipkg/internal/fetch"
	"github.com/kamusis/aipkg/internal/index"
	"github.com/kamusis/aipkg/internal/installer"
	"github.com/kamusis/aipkg/internal/lock"
	"github.com/kamusis/aipkg/internal/sources"
)

// env bundles what most commands need: the effective config, a logger,
// a fetcher and an installer sharing both.
type env struct {
	ctx       context.Context
	cfg       *config.Config
	logger    *log.Logger
	fetcher   *fetch.HTTPFetcher
	installer *installer.Installer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'aipkg init' first.", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := loggerFromContext(ctx)
	f := fetch.New(cfg.FetchTimeout, cfg.UserAgent)
	f.Progress = printDownloadProgress
	return &env{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		fetcher:   f,
		installer: installer.New(cfg.Paths, f, logger),
	}, nil
}

// locked runs fn while holding the state lock. Leftovers from an
// interrupted install are cleaned up first.
func (e *env) locked(fn func() error) error {
	if err := e.cfg.EnsureDirs(); err != nil {
		return err
	}
	release, err := lock.Acquire(e.cfg.LockFile, lock.DefaultTimeout)
	if err != nil {
		return err
	}
	defer release()

	recovered, err := e.installer.Recover()
	if err != nil {
		return fmt.Errorf("cannot recover interrupted install: %w", err)
	}
	for _, r := range recovered {
		printWarn(r.Name, fmt.Sprintf("cleaned up interrupted install of %s", r.Version))
	}
	return fn()
}

// refresh brings the unified index up to date from every configured
// source and collective. Callers hold the state lock.
func (e *env) refresh(force bool) (*cache.Result, error) {
	roots, err := sources.All(e.cfg.SourcesFile, e.cfg.CollectivesFile)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no sources configured\nRun 'aipkg source add <url>' first.")
	}
	prog := newProgress(e.logger)
	res, err := cache.New(e.fetcher, e.logger, e.cfg.IndexFile, e.cfg.MetadataFile).Refresh(e.ctx, roots, force)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Indexed %d entries from %d source(s)", res.Index.Len(), len(roots)))
	return res, nil
}

// loadIndex reads the cached unified index.
func (e *env) loadIndex() (*index.Index, error) {
	return index.Load(e.cfg.IndexFile)
}
