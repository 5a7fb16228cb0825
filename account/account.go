// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/deliverable"
	"github.com/ava-labs/computeledger/refund"
)

// Key identifies the sub-account a consumer holds with a provider.
type Key struct {
	Consumer codec.Address
	Provider codec.Address
}

// String is the key's advisory lock name.
func (k Key) String() string {
	return k.Consumer.String() + "/" + k.Provider.String()
}

// Account is the balance a consumer has committed to a single provider.
//
// [Nonce] outlives the account: a soft-deleted account keeps it so that a
// recreated (consumer, provider) pair can never accept an old settlement.
type Account struct {
	Consumer     codec.Address
	Provider     codec.Address
	Balance      uint64
	Nonce        uint64
	Acknowledged bool
	Metadata     string

	Refunds      *refund.Ledger
	Deliverables *deliverable.Buffer
	Sessions     Revocation

	live bool
}

func newAccount(k Key) *Account {
	return &Account{
		Consumer:     k.Consumer,
		Provider:     k.Provider,
		Refunds:      refund.New(),
		Deliverables: deliverable.NewBuffer(),
	}
}

func (a *Account) Key() Key {
	return Key{Consumer: a.Consumer, Provider: a.Provider}
}

func (a *Account) Live() bool {
	return a.live
}

// PendingRefund is the part of [Balance] queued for withdrawal.
func (a *Account) PendingRefund() uint64 {
	return a.Refunds.Pending()
}

// Spendable is the part of [Balance] not queued for withdrawal.
func (a *Account) Spendable() uint64 {
	pending := a.PendingRefund()
	if pending >= a.Balance {
		return 0
	}
	return a.Balance - pending
}

// clear wipes everything but the identity and the nonce.
func (a *Account) clear() {
	a.Balance = 0
	a.Acknowledged = false
	a.Metadata = ""
	a.Refunds.Reset()
	a.Deliverables.Reset()
	a.Sessions.RevokeAll()
	a.live = false
}

// View is a detached copy of an account, safe to hand out to readers.
type View struct {
	Consumer      codec.Address             `json:"consumer"`
	Provider      codec.Address             `json:"provider"`
	Balance       uint64                    `json:"balance"`
	PendingRefund uint64                    `json:"pendingRefund"`
	Nonce         uint64                    `json:"nonce"`
	Acknowledged  bool                      `json:"acknowledged"`
	Metadata      string                    `json:"metadata"`
	Refunds       []refund.Entry            `json:"refunds"`
	Deliverables  []deliverable.Deliverable `json:"deliverables"`
	Generation    uint64                    `json:"generation"`
}

func (a *Account) View() View {
	return View{
		Consumer:      a.Consumer,
		Provider:      a.Provider,
		Balance:       a.Balance,
		PendingRefund: a.PendingRefund(),
		Nonce:         a.Nonce,
		Acknowledged:  a.Acknowledged,
		Metadata:      a.Metadata,
		Refunds:       a.Refunds.Entries(),
		Deliverables:  a.Deliverables.List(),
		Generation:    a.Sessions.Generation,
	}
}

// Revocation tracks which short-lived session tokens an account has
// invalidated. Bumping [Generation] invalidates every token at once.
type Revocation struct {
	Generation uint64
	Revoked    [consts.SessionTokenSlots / 64]uint64
}

func (r *Revocation) Revoke(tokenID uint8) {
	r.Revoked[tokenID/64] |= 1 << (tokenID % 64)
}

func (r *Revocation) RevokeAll() {
	r.Generation++
	r.Revoked = [consts.SessionTokenSlots / 64]uint64{}
}

// IsRevoked reports whether a token minted for [generation] with [tokenID]
// is no longer valid.
func (r *Revocation) IsRevoked(generation uint64, tokenID uint8) bool {
	if generation != r.Generation {
		return true
	}
	return r.Revoked[tokenID/64]&(1<<(tokenID%64)) != 0
}
