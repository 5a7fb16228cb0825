// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/crypto/secp256k1"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// Descriptor is what a provider publishes about the service it sells.
type Descriptor struct {
	Provider      codec.Address `json:"provider"`
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	Model         string        `json:"model"`
	Verifiability string        `json:"verifiability"`
	InputPrice    uint64        `json:"inputPrice"`
	OutputPrice   uint64        `json:"outputPrice"`

	// AttestorKey signs every settlement of this provider.
	AttestorKey secp256k1.PublicKey `json:"attestorKey"`
	// AttestorAcknowledged is set by the operator once it trusts
	// [AttestorKey]. Any change to a security-relevant field clears it.
	AttestorAcknowledged bool `json:"attestorAcknowledged"`

	Stake     uint64 `json:"stake"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Trusted reports whether the operator side of the two-party trust is in
// place.
func (d *Descriptor) Trusted() bool {
	return d.AttestorAcknowledged && !d.AttestorKey.Empty()
}

func (d *Descriptor) securityChanged(next *Descriptor) bool {
	return d.AttestorKey != next.AttestorKey ||
		d.URL != next.URL ||
		d.Verifiability != next.Verifiability
}

// Registry holds the descriptor of every provider of one service.
//
// Registry is not thread-safe and requires the caller synchronize usage.
type Registry struct {
	log      logging.Logger
	minStake uint64

	services  map[codec.Address]*Descriptor
	providers set.SampleableSet[codec.Address]
}

func NewRegistry(log logging.Logger, minStake uint64) *Registry {
	return &Registry{
		log:       log,
		minStake:  minStake,
		services:  map[codec.Address]*Descriptor{},
		providers: set.NewSampleableSet[codec.Address](0),
	}
}

// Register creates or updates the descriptor of [d.Provider] and adds
// [stake] to what the provider already staked. It returns whether the
// operator acknowledgment was revoked by the update.
func (r *Registry) Register(d Descriptor, stake uint64, now int64) (bool, error) {
	if d.Provider.Empty() || len(d.Name) == 0 {
		return false, ErrInvalidDescriptor
	}
	prev, ok := r.services[d.Provider]
	if !ok {
		if stake < r.minStake {
			return false, fmt.Errorf("%w: staked=%d required=%d", ErrInsufficientStake, stake, r.minStake)
		}
		d.Stake = stake
		d.AttestorAcknowledged = false
		d.UpdatedAt = now
		r.services[d.Provider] = &d
		r.providers.Add(d.Provider)
		r.log.Info("registered service",
			zap.Stringer("provider", d.Provider),
			zap.String("name", d.Name),
			zap.Uint64("stake", stake),
		)
		return false, nil
	}

	total, err := smath.Add(prev.Stake, stake)
	if err != nil {
		return false, fmt.Errorf("%w: stake overflow", ErrInvalidDescriptor)
	}
	revoked := prev.AttestorAcknowledged && prev.securityChanged(&d)
	d.Stake = total
	d.AttestorAcknowledged = prev.AttestorAcknowledged && !prev.securityChanged(&d)
	d.UpdatedAt = now
	r.services[d.Provider] = &d
	if revoked {
		r.log.Info("attestor acknowledgment revoked by update",
			zap.Stringer("provider", d.Provider),
		)
	}
	return revoked, nil
}

// Acknowledge sets the operator's trust in the provider's attestor key.
func (r *Registry) Acknowledge(provider codec.Address, trusted bool) error {
	d, ok := r.services[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	d.AttestorAcknowledged = trusted
	r.log.Info("attestor acknowledgment updated",
		zap.Stringer("provider", provider),
		zap.Bool("trusted", trusted),
	)
	return nil
}

// Remove deletes the descriptor and returns the stake owed to the
// provider.
func (r *Registry) Remove(provider codec.Address) (uint64, error) {
	d, ok := r.services[provider]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	delete(r.services, provider)
	r.providers.Remove(provider)
	return d.Stake, nil
}

// Get returns a copy of the descriptor of [provider].
func (r *Registry) Get(provider codec.Address) (Descriptor, error) {
	d, ok := r.services[provider]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	return *d, nil
}

func (r *Registry) Len() int {
	return r.providers.Len()
}

// List pages through every registered descriptor.
func (r *Registry) List(offset, limit int) ([]Descriptor, int, error) {
	if limit == 0 {
		limit = consts.DefaultPageSize
	}
	if limit < 0 || limit > consts.MaxPageSize {
		return nil, 0, fmt.Errorf("%w: limit=%d max=%d", ErrLimitTooLarge, limit, consts.MaxPageSize)
	}
	total := r.providers.Len()
	if offset < 0 || offset >= total {
		return []Descriptor{}, total, nil
	}
	providers := r.providers.List()[offset:min(offset+limit, total)]
	out := make([]Descriptor, 0, len(providers))
	for _, p := range providers {
		out = append(out, *r.services[p])
	}
	return out, total, nil
}
