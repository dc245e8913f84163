package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"salesboard/config"
	"salesboard/dataset"
	"salesboard/internal/watch"
	"salesboard/store"
	"salesboard/web"
)

// app implements Applicator, wiring the config, loader, snapshot store,
// cache and web server together.
type app struct {
	logger *log.Logger
}

func newApp(logger *log.Logger) *app {
	return &app{logger: logger}
}

// setup loads the config and opens the snapshot store, the shared preamble
// of every command.
func (a *app) setup(ctx context.Context, cfgPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	st, err := store.Open(cfg.SnapshotDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot store error: %w", err)
	}
	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return cfg, st, nil
}

// reloader builds the load-or-restore func shared by startup, the directory
// watcher and the /api/reload endpoint. The feeds are fetched and hashed
// first; when the store already has a snapshot for that hash the parsed
// tables are thrown away and the stored dataset used instead, skipping
// normalization and enrichment.
func (a *app) reloader(loader *dataset.Loader, st *store.Store, cache *dataset.Cache) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		raw, report, err := loader.Fetch(ctx)
		if err != nil {
			return err
		}

		ds, snapReport, err := st.Load(ctx, raw.Hash)
		if err == nil {
			a.logger.Info("dataset restored from snapshot", "hash", ds.Hash)
			cache.Set(ds, snapReport)
			return nil
		}
		if !errors.Is(err, store.ErrNoSnapshot) {
			a.logger.Warn("snapshot load failed, consolidating from feeds", "err", err)
		}

		ds = loader.Consolidate(raw, report)
		if err := st.Save(ctx, ds, report); err != nil {
			// Persisting the snapshot is an optimization for the next start;
			// the in-memory dataset is still good.
			a.logger.Warn("snapshot save failed", "err", err)
		}
		cache.Set(ds, report)
		a.logger.Info("dataset consolidated",
			"hash", ds.Hash,
			"sales", len(ds.Sales),
			"presales", len(ds.PreSales),
			"clients", len(ds.Clients),
			"rejections", len(ds.Rejections),
		)
		return nil
	}
}

// Serve loads the feeds and runs the web server, reloading whenever the
// data directory changes.
func (a *app) Serve(ctx context.Context, cfgPath string) error {
	cfg, st, err := a.setup(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer st.Close()

	channels := dataset.NewChannelMap(cfg.Channels, cfg.DefaultChannel)
	loader := dataset.NewLoader(cfg.DataDir, channels, a.logger)
	cache := dataset.NewCache()
	reload := a.reloader(loader, st, cache)

	// The first load may find no feeds at all; the server still starts and
	// reports per-feed status so the operator can supply the files.
	if err := reload(ctx); err != nil {
		return err
	}

	watcher, err := watch.NewDirWatcher(cfg.DataDir, []string{".csv"})
	if err != nil {
		return err
	}

	webApp, err := web.New(a.logger, cfg, cache, reload)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Watch(ctx)
	})
	g.Go(func() error {
		for range watcher.Updates() {
			a.logger.Info("data directory changed, reloading")
			if err := reload(ctx); err != nil {
				a.logger.Error("reload failed", "err", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		return webApp.StartServer(ctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Inspect locates and parses the feeds and prints the per-feed outcome
// without serving.
func (a *app) Inspect(ctx context.Context, cfgPath string) error {
	cfg, st, err := a.setup(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer st.Close()

	channels := dataset.NewChannelMap(cfg.Channels, cfg.DefaultChannel)
	loader := dataset.NewLoader(cfg.DataDir, channels, a.logger)
	ds, report, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	for _, fr := range report.Feeds() {
		fmt.Printf("%-12s %-15s rows=%-8d %s", fr.Name, fr.Status, fr.Rows, fr.Path)
		if fr.Reason != "" {
			fmt.Printf(" (%s)", fr.Reason)
		}
		fmt.Println()
	}
	fmt.Printf("snapshot hash %s\n", ds.Hash)
	return nil
}

// Snapshots lists the stored snapshots.
func (a *app) Snapshots(ctx context.Context, cfgPath string) error {
	_, st, err := a.setup(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer st.Close()

	metas, err := st.Snapshots(ctx)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no snapshots stored")
		return nil
	}
	for _, m := range metas {
		fmt.Printf("%s  loaded %s  stored %s\n",
			m.Hash,
			m.LoadedAt.Format("2006-01-02 15:04:05"),
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}

// Prune deletes all but the newest stored snapshots.
func (a *app) Prune(ctx context.Context, cfgPath string, keep int) error {
	_, st, err := a.setup(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Prune(ctx, keep); err != nil {
		return err
	}
	a.logger.Info("snapshots pruned", "keep", keep)
	return nil
}

// Wipe deletes every stored snapshot.
func (a *app) Wipe(ctx context.Context, cfgPath string) error {
	_, st, err := a.setup(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Wipe(ctx); err != nil {
		return err
	}
	a.logger.Info("snapshot store wiped")
	return nil
}
