package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// PreviewCmd serves the rendered site over HTTP and rebuilds whenever the
// source tree changes. Build failures during preview are logged, never
// fatal; the previous output keeps being served.
type PreviewCmd struct {
	Addr string `help:"Listen address" default:"127.0.0.1:8173"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	if err := RunBuild(context.Background(), cfg, g); err != nil {
		slog.Warn("Initial build had errors, serving anyway", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "create source watcher").Fatal().Build()
	}
	defer watcher.Close()
	if err := watcher.Add(cfg.SourceDir); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "watch source directory").
			WithContext("dir", cfg.SourceDir).
			Fatal().
			Build()
	}

	go p.rebuildLoop(watcher, cfg, g)

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(cfg.OutputDir)))
	if g.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(g.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	slog.Info("Preview server listening", "addr", p.Addr, "serving", cfg.OutputDir)
	server := &http.Server{Addr: p.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return server.ListenAndServe()
}

// rebuildLoop coalesces bursts of filesystem events into one rebuild.
func (p *PreviewCmd) rebuildLoop(watcher *fsnotify.Watcher, cfg *config.Config, g *Global) {
	var timer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(300*time.Millisecond, func() {
				slog.Info("Source changed, rebuilding", "trigger", event.Name)
				if err := RunBuild(context.Background(), cfg, g); err != nil {
					slog.Warn("Rebuild finished with errors", "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}
