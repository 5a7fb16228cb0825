// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lockmap

import (
	"errors"
	"sync"
)

var ErrBusy = errors.New("key is busy")

// Lockmap is an advisory lock keyed by account identity. Acquiring a key
// that is already held fails immediately with [ErrBusy].
type Lockmap struct {
	l sync.Mutex
	m map[string]struct{}
}

func New(initSize int) *Lockmap {
	return &Lockmap{
		m: make(map[string]struct{}, initSize),
	}
}

// TryLock acquires [key] and returns the function that releases it.
func (l *Lockmap) TryLock(key string) (func(), error) {
	l.l.Lock()
	defer l.l.Unlock()

	if _, ok := l.m[key]; ok {
		return nil, ErrBusy
	}
	l.m[key] = struct{}{}
	return func() { l.unlock(key) }, nil
}

func (l *Lockmap) unlock(key string) {
	l.l.Lock()
	defer l.l.Unlock()

	delete(l.m, key)
}

// Held reports whether [key] is currently locked.
func (l *Lockmap) Held(key string) bool {
	l.l.Lock()
	defer l.l.Unlock()

	_, ok := l.m[key]
	return ok
}

func (l *Lockmap) Locks() int {
	l.l.Lock()
	defer l.l.Unlock()

	return len(l.m)
}
