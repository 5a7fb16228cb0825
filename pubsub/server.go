// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pubsub pushes binary messages to every connected websocket
// client.
package pubsub

import (
	"net/http"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var _ http.Handler = (*Server)(nil)

type ServerConfig struct {
	// Size of the ws read buffer
	ReadBufferSize int
	// Size of the ws write buffer
	WriteBufferSize int
	// Maximum number of pending messages to send to a peer.
	MaxPendingMessages int
	// Maximum message size in bytes allowed from peer.
	MaxReadMessageSize int64
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration
}

func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:     readBufferSize,
		WriteBufferSize:    writeBufferSize,
		MaxPendingMessages: maxPendingMessages,
		MaxReadMessageSize: maxReadMessageSize,
		WriteWait:          writeWait,
		PongWait:           pongWait,
		PingPeriod:         (pongWait * 9) / 10,
	}
}

// Server maintains the set of active clients and sends messages to them.
//
// Mount the server on an HTTP router and connect with
// websocket.DefaultDialer.Dial().
type Server struct {
	log      logging.Logger
	config   ServerConfig
	upgrader websocket.Upgrader

	conns  *Connections
	closed atomic.Bool
}

func New(log logging.Logger, config ServerConfig) *Server {
	return &Server{
		log:    log,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		conns: NewConnections(),
	}
}

// ServeHTTP adds a connection to the server and starts goroutines for
// reading and writing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("failed to upgrade",
			zap.Error(err),
		)
		return
	}
	conn := &Connection{
		s:    s,
		conn: wsConn,
		send: make(chan []byte, s.config.MaxPendingMessages),
	}
	conn.active.Store(true)
	s.conns.Add(conn)

	go conn.writePump()
	go conn.readPump()
}

// Publish queues [msg] on every active connection and returns how many
// accepted it.
func (s *Server) Publish(msg []byte) int {
	sent := 0
	for _, conn := range s.conns.Conns() {
		if conn.Send(msg) {
			sent++
			continue
		}
		s.log.Verbo("dropping message to subscribed connection due to too many pending messages")
	}
	return sent
}

func (s *Server) Connections() int {
	return s.conns.Len()
}

// Close disconnects every client and rejects new ones.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	for _, conn := range s.conns.Conns() {
		conn.deactivate()
	}
	return nil
}

func (s *Server) removeConnection(conn *Connection) {
	s.conns.Remove(conn)
}
