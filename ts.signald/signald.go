/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Tree Signal daemon: accepts messages published to hierarchical
// channels, maintains the channel tree, and serves treemap layouts to
// the dashboard.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ts/common/chantree"
	"ts/common/colors"
	"ts/common/treemap"
	"ts/common/tscfg"
	"ts/ts_common/tsutil"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const pname = "ts.signald"

var (
	promAddr = flag.String("promhttp-address", ":9013",
		"The address to listen on for Prometheus HTTP requests.")
	logLevel = flag.String("log-level", "info", "initial log level")
)

// service is the process-wide coordinator.  The tree, the color service,
// the layout generator reference, and the decay configuration are all
// mutated only while holding the embedded lock; handlers take it around
// domain operations and never around I/O.
type service struct {
	sync.Mutex

	tree   *chantree.Tree
	colors *colors.Service
	layout *treemap.Generator
	cfg    *tscfg.Config
	slog   *zap.SugaredLogger
}

// colorService builds a color service from the client color settings,
// falling back to the defaults when a mode doesn't parse.
func colorService(cc *tscfg.ClientColors, slog *zap.SugaredLogger) *colors.Service {
	mode, err := colors.ParseAssignmentMode(cc.AssignmentMode)
	if err != nil {
		slog.Warnf("bad assignment mode %q, using %q",
			cc.AssignmentMode, colors.AssignIncrement)
		mode = colors.AssignIncrement
	}

	inherit, err := colors.ParseInheritanceMode(cc.InheritanceMode)
	if err != nil {
		slog.Warnf("bad inheritance mode %q, using %q",
			cc.InheritanceMode, colors.InheritUnique)
		inherit = colors.InheritUnique
	}

	return colors.NewService(mode, inherit)
}

func newService(cfg *tscfg.Config, slog *zap.SugaredLogger) *service {
	tree := chantree.New()
	tree.SetHistoryLimit(cfg.History.MaxMessages)
	tree.ConfigureDecay(cfg.Decay.Hold(), cfg.Decay.Decay())

	svc := colorService(&cfg.Client.Colors, slog)

	return &service{
		tree:   tree,
		colors: svc,
		layout: treemap.NewGenerator(svc),
		cfg:    cfg,
		slog:   slog,
	}
}

func main() {
	flag.Parse()

	slog := tsutil.NewLogger(pname)
	if err := tsutil.LogSetLevel(*logLevel); err != nil {
		slog.Warnf("bad log level %q: %v", *logLevel, err)
	}

	cfg, path, err := tscfg.Load()
	if err != nil {
		slog.Warnf("running on default configuration: %v", err)
	} else if path != "" {
		slog.Infof("loaded configuration from %s", path)
	}

	s := newService(cfg, slog)

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(*promAddr, nil)

	e := newRouter(s, slog.Desugar())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.cleanupLoop(cfg.Cleanup.Interval(), stop)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Fatalf("listener on %s exited: %v", addr, err)
		}
	}()
	slog.Infof("%s online at %s", pname, addr)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	got := <-sig
	slog.Infof("Signal (%v) received, shutting down", got)

	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Warnf("http shutdown: %v", err)
	}
	wg.Wait()
}
