package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/pwsink-go/internal/api"
	"github.com/micro-nova/pwsink-go/internal/config"
	"github.com/micro-nova/pwsink-go/internal/events"
	"github.com/micro-nova/pwsink-go/internal/identity"
	"github.com/micro-nova/pwsink-go/internal/zeroconf"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr string
		mdns bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := c.setup()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("mdns") {
				cfg.Serve.MDNS = mdns
			}
			return c.serve(cmd.Context(), cfg, path)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:7683)")
	cmd.Flags().BoolVar(&mdns, "mdns", false, "advertise the API over mDNS")
	return cmd
}

func (c *cli) serve(ctx context.Context, cfg config.Config, path string) error {
	log := c.log
	eng, backend := newEngine(cfg, log, c.opts.mock)

	settings := func() config.Config { return cfg }
	watcher, err := config.NewWatcher(path, cfg, log)
	if err != nil {
		log.Warn("serve: config reload disabled", "path", path, "err", err)
	} else {
		defer watcher.Close()
		go watcher.Run(ctx)
		settings = func() config.Config {
			// Listen address and mDNS are fixed for the server's lifetime.
			cur := watcher.Current()
			cur.Serve = cfg.Serve
			return cur
		}
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	info := identity.Get(backend)
	srv := &http.Server{
		Handler:           api.NewRouter(eng, events.NewBus(), settings, info, log),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serve: listening", "addr", ln.Addr().String(), "backend", backend, "mock", c.opts.mock)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Serve.MDNS {
		port := ln.Addr().(*net.TCPAddr).Port
		zc := zeroconf.New(info.Hostname, port, info.Version, log)
		go func() {
			if err := zc.Start(ctx); err != nil {
				log.Warn("serve: zeroconf failed", "err", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("serve: shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn("serve: shutdown error", "err", err)
	}
	return nil
}
