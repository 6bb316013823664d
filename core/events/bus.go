// Copyright (C) 2023 Deneb Markets Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package events

import (
	"context"
	"strings"

	vgcontext "code.denebmarkets.io/deneb/libs/context"
)

type Type int

// simple interface for event filtering on party ID.
type partyFilterable interface {
	Event
	IsParty(id string) bool
}

// Base common denominator all event-bus events share.
type Base struct {
	ctx     context.Context
	traceID string
	txHash  string
	blockNr int64
	seq     uint64
	et      Type
}

// Event - the base event interface type. The sequence ID setter lives
// here so the broker can stamp events without type assertions. It only
// sets the sequence ID once.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	TxHash() string
	Sequence() uint64
	SetSequenceID(s uint64)
	BlockNr() int64
	// CompositeCount reports how many records this event expands to,
	// so sequence numbering stays stable for multi-record events.
	CompositeCount() uint64
	Replace(context.Context)
}

const (
	// All event type -> used by subscribers to just receive all events, has no actual corresponding event payload.
	All Type = iota
	// other event types that DO have corresponding event payloads.
	TimeUpdate
	OrderEvent
	TradeEvent
	SettlementEvent
	ModeChangeEvent
)

var eventStrings = map[Type]string{
	All:             "ALL",
	TimeUpdate:      "TimeUpdate",
	OrderEvent:      "OrderEvent",
	TradeEvent:      "TradeEvent",
	SettlementEvent: "SettlementEvent",
	ModeChangeEvent: "ModeChangeEvent",
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := vgcontext.TraceIDFromContext(ctx)
	h, _ := vgcontext.BlockHeightFromContext(ctx)
	txHash, _ := vgcontext.TxHashFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		txHash:  txHash,
		blockNr: h,
		et:      t,
	}
}

// Replace updates the event to be based on the new given context.
func (b *Base) Replace(ctx context.Context) {
	nb := newBase(ctx, b.Type())
	*b = *nb
}

// CompositeCount on the base event will default to 1.
func (b Base) CompositeCount() uint64 {
	return 1
}

// TraceID returns the... traceID obviously.
func (b Base) TraceID() string {
	return b.traceID
}

func (b Base) TxHash() string {
	return b.txHash
}

func (b *Base) SetSequenceID(s uint64) {
	// sequence ID can only be set once
	if b.seq != 0 {
		return
	}
	b.seq = s
}

// Sequence returns event sequence number.
func (b Base) Sequence() uint64 {
	return b.seq
}

// Context returns context.
func (b Base) Context() context.Context {
	return b.ctx
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}

// BlockNr returns the current block number.
func (b Base) BlockNr() int64 {
	return b.blockNr
}

// String get string representation of event type.
func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}

// TryFromString tries to parse a raw string into an event type, false indicates that failed.
func TryFromString(s string) (*Type, bool) {
	for k, v := range eventStrings {
		if strings.EqualFold(s, v) {
			return &k, true
		}
	}
	return nil, false
}

// GetPartyEvents filters the given slice down to events touching the party.
func GetPartyEvents(evts []Event, party string) []Event {
	ret := make([]Event, 0, len(evts))
	for _, e := range evts {
		if pe, ok := e.(partyFilterable); ok && pe.IsParty(party) {
			ret = append(ret, e)
		}
	}
	return ret
}
