// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
)

// Receipt describes one applied settlement.
type Receipt struct {
	Consumer      codec.Address `json:"consumer"`
	Provider      codec.Address `json:"provider"`
	Nonce         uint64        `json:"nonce"`
	Fee           uint64        `json:"fee"`
	Charged       uint64        `json:"charged"`
	Unsettled     uint64        `json:"unsettled"`
	Status        Status        `json:"status"`
	DeliverableID string        `json:"deliverableId,omitempty"`
	RequestHash   ids.ID        `json:"requestHash"`
	Timestamp     int64         `json:"timestamp"`
}

const maxReceiptSize = 2*codec.AddressLen + 4*consts.Uint64Len + 1 +
	consts.Uint16Len + consts.MaxDeliverableIDLen + ids.IDLen + consts.Uint64Len

func (r *Receipt) Marshal() ([]byte, error) {
	p := codec.NewWriter(maxReceiptSize, maxReceiptSize)
	p.PackAddress(r.Consumer)
	p.PackAddress(r.Provider)
	p.PackUint64(r.Nonce)
	p.PackUint64(r.Fee)
	p.PackUint64(r.Charged)
	p.PackUint64(r.Unsettled)
	p.PackByte(byte(r.Status))
	p.PackString(r.DeliverableID)
	p.PackID(r.RequestHash)
	p.PackInt64(r.Timestamp)
	return p.Bytes(), p.Err()
}

func UnmarshalReceipt(b []byte) (*Receipt, error) {
	p := codec.NewReader(b, maxReceiptSize)
	var r Receipt
	p.UnpackAddress(&r.Consumer)
	p.UnpackAddress(&r.Provider)
	r.Nonce = p.UnpackUint64(true)
	r.Fee = p.UnpackUint64(false)
	r.Charged = p.UnpackUint64(false)
	r.Unsettled = p.UnpackUint64(false)
	r.Status = Status(p.UnpackByte())
	r.DeliverableID = p.UnpackString(false)
	p.UnpackID(false, &r.RequestHash)
	r.Timestamp = p.UnpackInt64(false)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, ErrInvalidReceipt
	}
	return &r, nil
}
