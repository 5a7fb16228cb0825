// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliverable

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/computeledger/consts"
)

// Deliverable is a provider-issued receipt for one unit of completed work.
type Deliverable struct {
	ID               string `json:"id"`
	ContentHash      ids.ID `json:"contentHash"`
	EncryptedPayload []byte `json:"encryptedPayload"`
	Acknowledged     bool   `json:"acknowledged"`
	Settled          bool   `json:"settled"`
	CreatedAt        int64  `json:"createdAt"`
}

// Buffer keeps the most recent [consts.DeliverableCapacity] deliverables of
// an account in a ring. A deliverable is only admitted once the previous
// one has been acknowledged, so when the ring is full the entry at [head]
// is always acknowledged and safe to evict.
//
// Buffer is not thread-safe and requires the caller synchronize usage.
type Buffer struct {
	slots [consts.DeliverableCapacity]*Deliverable
	head  int
	count int

	// id -> physical slot
	index map[string]int
}

func NewBuffer() *Buffer {
	return &Buffer{
		index: make(map[string]int, consts.DeliverableCapacity),
	}
}

func (b *Buffer) Len() int {
	return b.count
}

func (b *Buffer) slot(pos int) int {
	return (b.head + pos) % consts.DeliverableCapacity
}

// Last returns the most recently admitted deliverable.
func (b *Buffer) Last() (*Deliverable, bool) {
	if b.count == 0 {
		return nil, false
	}
	return b.slots[b.slot(b.count-1)], true
}

// Admit appends a new pending deliverable, evicting the oldest one if the
// buffer is full. It returns the id of the evicted deliverable, if any.
func (b *Buffer) Admit(id string, contentHash ids.ID, now int64) (string, error) {
	if len(id) == 0 || len(id) > consts.MaxDeliverableIDLen {
		return "", fmt.Errorf("%w: length=%d", ErrInvalidID, len(id))
	}
	if _, ok := b.index[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if last, ok := b.Last(); ok && !last.Acknowledged {
		return "", fmt.Errorf("%w: %s", ErrSequenceViolation, last.ID)
	}

	d := &Deliverable{
		ID:          id,
		ContentHash: contentHash,
		CreatedAt:   now,
	}
	if b.count < consts.DeliverableCapacity {
		s := b.slot(b.count)
		b.slots[s] = d
		b.index[id] = s
		b.count++
		return "", nil
	}

	oldest := b.slots[b.head]
	if !oldest.Acknowledged {
		// Unreachable while the admission rule holds.
		return "", fmt.Errorf("%w: oldest %s", ErrSequenceViolation, oldest.ID)
	}
	delete(b.index, oldest.ID)
	s := b.head
	b.slots[s] = d
	b.index[id] = s
	b.head = (b.head + 1) % consts.DeliverableCapacity
	return oldest.ID, nil
}

// Get returns the live deliverable with [id].
func (b *Buffer) Get(id string) (*Deliverable, error) {
	s, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b.slots[s], nil
}

func (b *Buffer) Acknowledge(id string) error {
	d, err := b.Get(id)
	if err != nil {
		return err
	}
	d.Acknowledged = true
	return nil
}

func (b *Buffer) MarkSettled(id string) error {
	d, err := b.Get(id)
	if err != nil {
		return err
	}
	if d.Settled {
		return fmt.Errorf("%w: %s", ErrAlreadySettled, id)
	}
	d.Settled = true
	return nil
}

func (b *Buffer) SetPayload(id string, payload []byte) error {
	d, err := b.Get(id)
	if err != nil {
		return err
	}
	d.EncryptedPayload = append([]byte(nil), payload...)
	return nil
}

// List returns copies of the stored deliverables, oldest first.
func (b *Buffer) List() []Deliverable {
	out := make([]Deliverable, 0, b.count)
	it := b.Iterator()
	for it.Next() {
		out = append(out, *it.Value())
	}
	return out
}

// Reset drops every deliverable.
func (b *Buffer) Reset() {
	b.slots = [consts.DeliverableCapacity]*Deliverable{}
	b.head = 0
	b.count = 0
	b.index = make(map[string]int, consts.DeliverableCapacity)
}

// Iterator walks a buffer oldest to newest regardless of where the ring
// wrapped. It must not be used across an Admit or Reset.
type Iterator struct {
	b   *Buffer
	pos int
	cur *Deliverable
}

func (b *Buffer) Iterator() *Iterator {
	return &Iterator{b: b}
}

func (it *Iterator) Next() bool {
	if it.pos >= it.b.count {
		it.cur = nil
		return false
	}
	it.cur = it.b.slots[it.b.slot(it.pos)]
	it.pos++
	return true
}

func (it *Iterator) Value() *Deliverable {
	return it.cur
}

// Reset rewinds the iterator to the oldest deliverable.
func (it *Iterator) Reset() {
	it.pos = 0
	it.cur = nil
}
