package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/server"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		workers     int
		watch       time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve forecasts over HTTP",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "workers",
				Usage:       "batch forecast workers (0 = one per CPU)",
				Destination: &workers,
			},
			&cli.DurationFlag{
				Name:        "watch",
				Usage:       "poll the store for newer versions at this interval (0 disables)",
				Destination: &watch,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, cfg, &addr, &readTimeout, &workers)
			log := logger.FromContext(ctx)

			reg := net.NewRegistry(nil)
			if snapshotFile != "" {
				snap, err := store.LoadFile(snapshotFile)
				if err != nil {
					return err
				}
				if err := reg.Publish(snap); err != nil {
					return err
				}
			} else {
				st, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()

				snap, err := fetchSnapshot(ctx, st)
				switch {
				case err == nil:
					if err := reg.Publish(snap); err != nil {
						return err
					}
				case errors.Is(err, store.ErrNotFound) && watch > 0:
					log.Warn("no snapshot yet, waiting for one", "model", modelName)
				default:
					return err
				}
				if watch > 0 {
					watchCtx, cancel := context.WithCancel(ctx)
					defer cancel()
					go watchStore(watchCtx, st, reg, modelName, watch, log)
				}
			}

			api := server.New(reg, log).WithWorkers(workers)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			api.Register(e)
			if cur := reg.Current(); cur != nil {
				log.Info("starting server", "address", addr, "model", cur.Name, "version", cur.Version)
			} else {
				log.Info("starting server", "address", addr)
			}
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

// watchStore publishes newer versions of the served model as they are saved,
// e.g. by a concurrent train command. It returns when ctx is done.
func watchStore(ctx context.Context, st store.Store, reg *net.Registry, name string, every time.Duration, log logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		snap, err := refresh(ctx, st, reg, name)
		if err != nil {
			log.Warn("store refresh failed", "err", err)
			continue
		}
		if snap != nil {
			log.Info("published new version", "model", snap.Name, "version", snap.Version)
		}
	}
}

// refresh publishes the store's latest version of name if it is newer than
// the registry's, and returns it. It returns nil when nothing changed.
func refresh(ctx context.Context, st store.Store, reg *net.Registry, name string) (*net.Snapshot, error) {
	latest, err := st.Latest(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cur := reg.Current(); cur != nil && latest.Version <= cur.Version {
		return nil, nil
	}
	if err := reg.Publish(latest); err != nil {
		if errors.Is(err, net.ErrStaleSnapshot) {
			return nil, nil
		}
		return nil, err
	}
	return latest, nil
}
