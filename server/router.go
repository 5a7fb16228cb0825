// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/gorilla/mux"
)

var ErrDuplicateRoute = errors.New("duplicate route")

var _ http.Handler = (*router)(nil)

type router struct {
	lock   sync.RWMutex
	router *mux.Router

	routes map[string]set.Set[string]
}

func newRouter() *router {
	return &router{
		router: mux.NewRouter(),
		routes: make(map[string]set.Set[string]),
	}
}

func (r *router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	r.router.ServeHTTP(w, req)
}

func (r *router) AddRouter(base, endpoint string, handler http.Handler) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	endpoints := r.routes[base]
	if endpoints.Contains(endpoint) {
		return fmt.Errorf("%w: %s%s", ErrDuplicateRoute, base, endpoint)
	}
	r.router.Handle(base+endpoint, handler)
	endpoints.Add(endpoint)
	r.routes[base] = endpoints
	return nil
}
