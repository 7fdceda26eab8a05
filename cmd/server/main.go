package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tileview/internal/config"
	"tileview/internal/logging"
	"tileview/internal/maps"
	"tileview/internal/plan"
	"tileview/internal/scene"
	"tileview/internal/server"
	"tileview/internal/stream"
	"tileview/internal/view"
)

func main() {
	configPath := flag.String("config", "", "config file (default $TILEVIEW_CONFIG or "+config.DefaultPath+")")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	// Generate host key if it doesn't exist
	if err := ensureHostKey(cfg.SSH.HostKey); err != nil {
		return fmt.Errorf("host key: %w", err)
	}

	allMaps, err := maps.LoadMaps(cfg.MapsDir)
	if err != nil {
		logrus.WithError(err).WithField("dir", cfg.MapsDir).Warn("could not load maps, using default map")
		dm := maps.DefaultMap()
		allMaps = map[string]*maps.Map{dm.Name: dm}
		cfg.DefaultMap = dm.Name
	}
	for name, m := range allMaps {
		logrus.WithFields(logrus.Fields{
			"map":     name,
			"size":    fmt.Sprintf("%dx%d", m.Width, m.Height),
			"layers":  len(m.LayerNames()),
			"portals": len(m.Portals),
		}).Info("map loaded")
	}

	tileset, err := config.LoadTileset(cfg.Tileset)
	if err != nil {
		return err
	}

	cache, err := plan.NewSharedCache(plan.SharedCacheConfig{
		MaxEntries: int64(cfg.Cache.MaxEntries),
		TTL:        cfg.Cache.PlanTTL,
	})
	if err != nil {
		return err
	}
	defer cache.Close()

	world, err := scene.NewWorld(allMaps, cfg.DefaultMap)
	if err != nil {
		return err
	}
	timing := scene.Timing{Rate: cfg.Render.TickRate}
	loop := scene.NewLoop(world, timing)

	builder, err := scene.NewBuilder(tileset, loop.Markers(), cache, scene.Options{
		Tile:     view.Size{Width: cfg.Render.TileWidth, Height: cfg.Render.TileHeight},
		Overdraw: cfg.Render.Overdraw,
		Parallel: cfg.Render.Parallel,
		Order:    cfg.Render.Order(),
	})
	if err != nil {
		return err
	}
	atlas, err := builder.Atlas()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })

	sshServer := server.NewSSHServer(cfg.SSH.Addr, cfg.SSH.HostKey, loop, builder, atlas)
	g.Go(func() error { return sshServer.Serve(ctx) })

	if cfg.HTTP.Addr != "" {
		router := stream.NewRouter(stream.NewHandler(world, builder, timing.Interval()))
		g.Go(func() error { return stream.Serve(ctx, cfg.HTTP.Addr, router) })
	}

	logrus.WithField("addr", cfg.SSH.Addr).Info("tileview started, connect with: ssh -p <port> YourName@localhost")
	return g.Wait()
}

func ensureHostKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // key already exists
	}

	logrus.WithField("path", path).Info("generating new host key")
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: keyBytes,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return pem.Encode(f, pemBlock)
}
