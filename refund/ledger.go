// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package refund

import (
	"fmt"

	"github.com/ava-labs/computeledger/consts"
)

// Entry is a pending withdrawal. [Index] is the entry's current slot and is
// rewritten whenever the ledger compacts.
type Entry struct {
	Index     uint64 `json:"index"`
	Amount    uint64 `json:"amount"`
	CreatedAt int64  `json:"createdAt"`
}

// Ledger is the bounded list of pending withdrawals attached to one
// account.
//
// Only entries[:active] are meaningful. Slots at or beyond [active] are
// stale and get overwritten by the next request; the backing slice only
// shrinks in [Ledger.Compact] and [Ledger.Reset].
//
// Ledger is not thread-safe and requires the caller synchronize usage.
type Ledger struct {
	entries []Entry
	active  int
	pending uint64
}

func New() *Ledger {
	return &Ledger{}
}

// Pending is the sum of all active entries.
func (l *Ledger) Pending() uint64 {
	return l.pending
}

func (l *Ledger) Active() int {
	return l.active
}

// Cap is the size of the backing slice, including stale slots.
func (l *Ledger) Cap() int {
	return len(l.entries)
}

func (l *Ledger) Full() bool {
	return l.active == consts.RefundCapacity
}

// Entries returns a copy of the active entries, oldest first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, l.active)
	copy(out, l.entries[:l.active])
	return out
}

// Request queues [amount] for withdrawal out of [balance] and returns the
// slot it was written to.
func (l *Ledger) Request(balance uint64, amount uint64, now int64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	var spendable uint64
	if balance > l.pending {
		spendable = balance - l.pending
	}
	if amount > spendable {
		return 0, fmt.Errorf("%w: requested=%d spendable=%d", ErrInsufficientFunds, amount, spendable)
	}
	if l.Full() {
		return 0, fmt.Errorf("%w: %d active", ErrRefundLimitExceeded, l.active)
	}

	slot := l.active
	e := Entry{
		Index:     uint64(slot),
		Amount:    amount,
		CreatedAt: now,
	}
	if slot < len(l.entries) {
		l.entries[slot] = e
	} else {
		l.entries = append(l.entries, e)
	}
	l.active++
	l.pending += amount
	return uint64(slot), nil
}

// Cancel reclaims up to [amount] from pending entries, oldest first, and
// returns how much was reclaimed. Partially consumed entries keep their
// creation time.
func (l *Ledger) Cancel(amount uint64) uint64 {
	remaining := amount
	kept := 0
	for i := 0; i < l.active; i++ {
		e := l.entries[i]
		if remaining > 0 {
			if e.Amount <= remaining {
				remaining -= e.Amount
				continue
			}
			e.Amount -= remaining
			remaining = 0
		}
		l.keep(kept, e)
		kept++
	}
	l.active = kept

	cancelled := amount - remaining
	l.pending -= cancelled
	return cancelled
}

// Process releases every entry that has been pending for at least
// [lockTime] seconds and returns the total released.
func (l *Ledger) Process(lockTime int64, now int64) uint64 {
	var (
		payable uint64
		left    uint64
		kept    int
	)
	for i := 0; i < l.active; i++ {
		e := l.entries[i]
		if now-e.CreatedAt >= lockTime {
			payable += e.Amount
			continue
		}
		l.keep(kept, e)
		left += e.Amount
		kept++
	}
	l.active = kept
	l.pending = left
	return payable
}

// ConsumeForSettlement reclaims up to [amount] from pending entries,
// newest first, so requests closest to maturity survive longest. It returns
// how much was reclaimed.
func (l *Ledger) ConsumeForSettlement(amount uint64) uint64 {
	remaining := amount
	for l.active > 0 && remaining > 0 {
		e := &l.entries[l.active-1]
		if e.Amount <= remaining {
			remaining -= e.Amount
			l.active--
			continue
		}
		e.Amount -= remaining
		remaining = 0
	}

	consumed := amount - remaining
	l.pending -= consumed
	return consumed
}

// Compact drops every stale slot from the backing slice.
func (l *Ledger) Compact() {
	entries := make([]Entry, l.active)
	copy(entries, l.entries[:l.active])
	l.entries = entries
}

// Reset drops every entry, active or not.
func (l *Ledger) Reset() {
	l.entries = nil
	l.active = 0
	l.pending = 0
}

func (l *Ledger) keep(slot int, e Entry) {
	e.Index = uint64(slot)
	l.entries[slot] = e
}
