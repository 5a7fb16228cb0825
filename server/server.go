// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const DefaultShutdownTimeout = 10 * time.Second

var _ Server = (*server)(nil)

type PathAdder interface {
	// AddRoute registers [handler] under [base] at [endpoint].
	AddRoute(handler http.Handler, base, endpoint string) error
}

// Server maintains the HTTP router
type Server interface {
	PathAdder
	// Dispatch serves requests until Shutdown is called
	Dispatch() error
	// Addr is the address the listener is bound to
	Addr() net.Addr
	Shutdown() error
}

type Config struct {
	ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
	WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins"`
	AllowedHosts   []string `json:"allowedHosts" yaml:"allowedHosts"`
}

type server struct {
	baseURL string
	log     logging.Logger

	shutdownTimeout time.Duration

	// Maps endpoints to handlers
	router *router

	srv      *http.Server
	listener net.Listener
}

// New returns a server that serves the routes added to it on [listener].
// Every response is gzipped when the client accepts it.
func New(
	baseURL string,
	log logging.Logger,
	listener net.Listener,
	cfg Config,
	wrappers ...Wrapper,
) Server {
	router := newRouter()
	allowedHostsHandler := filterInvalidHosts(router, cfg.AllowedHosts)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
	}).Handler(allowedHostsHandler)
	var handler http.Handler = gziphandler.GzipHandler(corsHandler)
	for _, wrapper := range wrappers {
		handler = wrapper.WrapHandler(handler)
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	log.Info("API created",
		zap.Stringer("addr", listener.Addr()),
		zap.Strings("allowedOrigins", cfg.AllowedOrigins),
		zap.Strings("allowedHosts", cfg.AllowedHosts),
	)
	return &server{
		baseURL:         baseURL,
		log:             log,
		shutdownTimeout: shutdownTimeout,
		router:          router,
		srv: &http.Server{
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		listener: listener,
	}
}

func (s *server) Dispatch() error {
	err := s.srv.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *server) AddRoute(handler http.Handler, base, endpoint string) error {
	url := fmt.Sprintf("%s/%s", s.baseURL, base)
	s.log.Info("adding route",
		zap.String("url", url),
		zap.String("endpoint", endpoint),
	)
	return s.router.AddRouter(url, endpoint, handler)
}

func (s *server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	err := s.srv.Shutdown(ctx)
	cancel()

	// If shutdown times out, make sure the server is still shutdown.
	_ = s.srv.Close()
	return err
}
