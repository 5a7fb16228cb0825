// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"errors"

	"github.com/ava-labs/computeledger/pubsub"
	"github.com/ava-labs/computeledger/settlement"
)

var (
	_ settlement.Recorder = (recorders)(nil)
	_ settlement.Recorder = (*feed)(nil)
)

// recorders hands every receipt to each recorder in order.
type recorders []settlement.Recorder

func (rs recorders) Record(ctx context.Context, r *settlement.Receipt) error {
	var errs []error
	for _, rec := range rs {
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// feed publishes marshaled receipts to websocket subscribers.
type feed struct {
	s *pubsub.Server
}

func (f *feed) Record(_ context.Context, r *settlement.Receipt) error {
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	f.s.Publish(b)
	return nil
}
