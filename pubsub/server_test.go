// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return conn
}

func TestServerPublish(t *testing.T) {
	require := require.New(t)

	s := New(logging.NoLog{}, NewDefaultServerConfig())
	web := httptest.NewServer(s)
	defer web.Close()

	a := dial(t, web.URL)
	defer a.Close()
	b := dial(t, web.URL)
	defer b.Close()
	require.Eventually(func() bool {
		return s.Connections() == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(2, s.Publish([]byte("receipt")))
	for _, conn := range []*websocket.Conn{a, b} {
		kind, msg, err := conn.ReadMessage()
		require.NoError(err)
		require.Equal(websocket.BinaryMessage, kind)
		require.Equal([]byte("receipt"), msg)
	}
}

func TestServerClientLeaves(t *testing.T) {
	require := require.New(t)

	s := New(logging.NoLog{}, NewDefaultServerConfig())
	web := httptest.NewServer(s)
	defer web.Close()

	conn := dial(t, web.URL)
	require.Eventually(func() bool {
		return s.Connections() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(conn.Close())
	require.Eventually(func() bool {
		return s.Connections() == 0
	}, 5*time.Second, 10*time.Millisecond)
	require.Zero(s.Publish([]byte("receipt")))
}

func TestServerClose(t *testing.T) {
	require := require.New(t)

	s := New(logging.NoLog{}, NewDefaultServerConfig())
	web := httptest.NewServer(s)
	defer web.Close()

	conn := dial(t, web.URL)
	defer conn.Close()
	require.Eventually(func() bool {
		return s.Connections() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(s.Close())
	require.ErrorIs(s.Close(), ErrClosed)

	// The client is sent a close frame.
	_, _, err := conn.ReadMessage()
	require.Error(err)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(web.URL, "http"), nil)
	require.ErrorIs(err, websocket.ErrBadHandshake)
	require.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	require.NoError(resp.Body.Close())
}
