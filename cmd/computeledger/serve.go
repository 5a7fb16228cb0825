// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/computeledger/api"
	"github.com/ava-labs/computeledger/api/jsonrpc"
	"github.com/ava-labs/computeledger/config"
	"github.com/ava-labs/computeledger/node"
	"github.com/ava-labs/computeledger/pubsub"
	"github.com/ava-labs/computeledger/server"
	"github.com/ava-labs/computeledger/storage"
	"github.com/ava-labs/computeledger/trace"

	cllogging "github.com/ava-labs/computeledger/internal/logging"
)

const (
	baseURL        = "/ext"
	receiptsPath   = "/receipts"
	metricsBase    = "metrics"
	mainLoggerName = "computeledger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger daemon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		var b []byte
		if len(path) > 0 {
			b, err = os.ReadFile(path)
			if err != nil {
				return err
			}
		}
		cfg, err := config.New(b)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("config", "", "path to a YAML or JSON config file")
}

func serve(ctx context.Context, cfg *config.Config) error {
	logFactory := cllogging.NewFactory(cfg.GetLoggingConfig())
	defer logFactory.Close()
	log, err := logFactory.Make(mainLoggerName)
	if err != nil {
		return err
	}

	tracer, err := trace.New(&cfg.Trace)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Close(); err != nil {
			log.Warn("unable to close tracer", zap.Error(err))
		}
	}()

	db, dbGatherer, err := storage.New(cfg.Pebble, cfg.DataDir, storage.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("unable to close journal", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	opts := []node.Option{
		node.WithRegisterer(registry),
		node.WithTracer(tracer),
	}
	var feed *pubsub.Server
	if cfg.StreamReceipts {
		feed = pubsub.New(log, pubsub.NewDefaultServerConfig())
		opts = append(opts, node.WithFeed(feed))
	}
	n, err := node.New(
		log,
		&mockable.Clock{},
		node.Config{
			Ledger:   cfg.GetLedgerConfig(),
			Services: cfg.GetServiceConfigs(),
		},
		db,
		newLogPayee(log),
		opts...,
	)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.GetHTTPAddress())
	if err != nil {
		return err
	}
	wrapper, err := server.NewMetricsWrapper(registry)
	if err != nil {
		return err
	}
	srv := server.New(baseURL, log, listener, cfg.API, wrapper)

	h, err := jsonrpc.JSONRPCServerFactory{}.New(n)
	if err != nil {
		return err
	}
	if err := srv.AddRoute(h.Handler, api.Name, h.Path); err != nil {
		return err
	}
	if feed != nil {
		if err := srv.AddRoute(feed, api.Name, receiptsPath); err != nil {
			return err
		}
	}
	metricsHandler := promhttp.HandlerFor(
		prometheus.Gatherers{registry, dbGatherer},
		promhttp.HandlerOpts{},
	)
	if err := srv.AddRoute(metricsHandler, metricsBase, ""); err != nil {
		return err
	}

	log.Info("serving",
		zap.Stringer("addr", srv.Addr()),
		zap.Strings("services", n.Services()),
		zap.String("dataDir", cfg.DataDir),
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Dispatch)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		if feed != nil {
			_ = feed.Close()
		}
		return srv.Shutdown()
	})
	return g.Wait()
}
