// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
)

// Store is the registry of every (consumer, provider) account of one
// service.
//
// Accounts live in an arena and are never removed from it: a deleted
// account becomes a tombstone that still holds its nonce and is revived in
// place if the pair is created again. The key map and the reverse indexes
// only point into the arena.
//
// Store is not thread-safe and requires the caller synchronize usage.
type Store struct {
	arena []*Account
	byKey map[Key]int

	all        set.SampleableSet[int]
	byProvider map[codec.Address]*set.SampleableSet[int]
	byConsumer map[codec.Address]*set.SampleableSet[int]
}

func NewStore() *Store {
	return &Store{
		byKey:      map[Key]int{},
		all:        set.NewSampleableSet[int](0),
		byProvider: map[codec.Address]*set.SampleableSet[int]{},
		byConsumer: map[codec.Address]*set.SampleableSet[int]{},
	}
}

// Len is the number of live accounts.
func (s *Store) Len() int {
	return s.all.Len()
}

// Create opens the account for (consumer, provider) with a zero balance.
func (s *Store) Create(consumer, provider codec.Address) (*Account, error) {
	k := Key{Consumer: consumer, Provider: provider}
	i, ok := s.byKey[k]
	if ok && s.arena[i].live {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, k)
	}
	if !ok {
		i = len(s.arena)
		s.arena = append(s.arena, newAccount(k))
		s.byKey[k] = i
	}
	a := s.arena[i]
	a.live = true

	s.all.Add(i)
	indexOf(s.byProvider, provider).Add(i)
	indexOf(s.byConsumer, consumer).Add(i)
	return a, nil
}

// Get returns the live account for (consumer, provider).
func (s *Store) Get(consumer, provider codec.Address) (*Account, error) {
	k := Key{Consumer: consumer, Provider: provider}
	i, ok := s.byKey[k]
	if !ok || !s.arena[i].live {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	return s.arena[i], nil
}

func (s *Store) Exists(consumer, provider codec.Address) bool {
	i, ok := s.byKey[Key{Consumer: consumer, Provider: provider}]
	return ok && s.arena[i].live
}

// LastNonce returns the highest settled nonce of the pair, including the
// nonce left behind by a deleted account.
func (s *Store) LastNonce(consumer, provider codec.Address) uint64 {
	i, ok := s.byKey[Key{Consumer: consumer, Provider: provider}]
	if !ok {
		return 0
	}
	return s.arena[i].Nonce
}

// SoftDelete clears the account and drops it from every index. Its nonce
// is kept.
func (s *Store) SoftDelete(consumer, provider codec.Address) error {
	a, err := s.Get(consumer, provider)
	if err != nil {
		return err
	}
	i := s.byKey[a.Key()]
	a.clear()

	s.all.Remove(i)
	removeFrom(s.byProvider, provider, i)
	removeFrom(s.byConsumer, consumer, i)
	return nil
}

// List pages through every live account. It returns the page and the
// total number of live accounts.
func (s *Store) List(offset, limit int) ([]*Account, int, error) {
	return s.page(&s.all, offset, limit)
}

func (s *Store) ListByProvider(provider codec.Address, offset, limit int) ([]*Account, int, error) {
	return s.page(s.byProvider[provider], offset, limit)
}

func (s *Store) ListByConsumer(consumer codec.Address, offset, limit int) ([]*Account, int, error) {
	return s.page(s.byConsumer[consumer], offset, limit)
}

// Providers returns every provider [consumer] has a live account with.
func (s *Store) Providers(consumer codec.Address) []codec.Address {
	positions, ok := s.byConsumer[consumer]
	if !ok {
		return nil
	}
	out := make([]codec.Address, 0, positions.Len())
	for _, i := range positions.List() {
		out = append(out, s.arena[i].Provider)
	}
	return out
}

// GetMany reads the accounts of [consumers] with [provider]. Pairs without
// a live account yield a zero-valued view so the result always lines up
// with the input.
func (s *Store) GetMany(consumers []codec.Address, provider codec.Address) ([]View, error) {
	if len(consumers) > consts.MaxBulkRead {
		return nil, fmt.Errorf("%w: %d > %d", ErrLimitTooLarge, len(consumers), consts.MaxBulkRead)
	}
	out := make([]View, len(consumers))
	for j, consumer := range consumers {
		a, err := s.Get(consumer, provider)
		if err != nil {
			out[j] = View{Consumer: consumer, Provider: provider}
			continue
		}
		out[j] = a.View()
	}
	return out, nil
}

// page returns the accounts at [offset, offset+limit) of [positions]. Removal
// swaps the last position into the hole, so a page is stable only while
// nothing is deleted.
func (s *Store) page(positions *set.SampleableSet[int], offset, limit int) ([]*Account, int, error) {
	if limit == 0 {
		limit = consts.DefaultPageSize
	}
	if limit < 0 || limit > consts.MaxPageSize {
		return nil, 0, fmt.Errorf("%w: limit=%d max=%d", ErrLimitTooLarge, limit, consts.MaxPageSize)
	}
	if offset < 0 {
		offset = 0
	}
	if positions == nil {
		return []*Account{}, 0, nil
	}
	total := positions.Len()
	if offset >= total {
		return []*Account{}, total, nil
	}
	list := positions.List()
	list = list[offset:min(offset+limit, total)]
	out := make([]*Account, len(list))
	for j, i := range list {
		out[j] = s.arena[i]
	}
	return out, total, nil
}

func indexOf(m map[codec.Address]*set.SampleableSet[int], k codec.Address) *set.SampleableSet[int] {
	positions, ok := m[k]
	if !ok {
		p := set.NewSampleableSet[int](1)
		positions = &p
		m[k] = positions
	}
	return positions
}

func removeFrom(m map[codec.Address]*set.SampleableSet[int], k codec.Address, i int) {
	positions, ok := m[k]
	if !ok {
		return
	}
	positions.Remove(i)
	if positions.Len() == 0 {
		delete(m, k)
	}
}
