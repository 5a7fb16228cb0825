// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"

	"github.com/ava-labs/computeledger/server"
)

const Name = "computeledger"

type Handler struct {
	Path    string
	Handler http.Handler
}

type HandlerFactory[T any] interface {
	New(t T) (Handler, error)
}

// NewJSONRPCHandler registers [service] under [name] on a JSON-RPC server.
func NewJSONRPCHandler(name string, service any) (http.Handler, error) {
	return server.NewHandler(service, name)
}
