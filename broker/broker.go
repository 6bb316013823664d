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

package broker

import (
	"sort"
	"sync"

	"code.denebmarkets.io/deneb/core/events"
	"code.denebmarkets.io/deneb/logging"
)

// Subscriber is the interface event consumers implement. Push is called
// inline on the sending goroutine, so subscribers must return promptly.
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
	SetID(id int)
	ID() int
}

// Broker - the base broker type. Fan-out is synchronous and in-process:
// Send returns once every matching subscriber has seen the event, and
// subscribers receive events in subscription-key order, so a replay of
// the same inputs produces the same delivery order.
type Broker struct {
	log *logging.Logger

	mu    sync.Mutex
	tSubs map[events.Type]map[int]Subscriber
	// these fields ensure a unique ID for all subscribers, regardless
	// of what event types they subscribe to
	subs map[int]Subscriber
	keys []int
	seq  uint64
}

// New creates a new base broker.
func New(log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		log:   log,
		tSubs: map[events.Type]map[int]Subscriber{},
		subs:  map[int]Subscriber{},
		keys:  []int{},
	}
}

// Send stamps the event with the next sequence number and hands it to
// every subscriber registered for its type, inline.
func (b *Broker) Send(event events.Event) {
	b.mu.Lock()
	b.seq++
	event.SetSequenceID(b.seq)
	subs := b.getSubsByType(event.Type())
	b.mu.Unlock()
	for _, sub := range subs {
		sub.Push(event)
	}
}

// SendBatch sends a batch of events of the same type in one Push per
// subscriber, preserving the batch order.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	for _, e := range evts {
		b.seq++
		e.SetSequenceID(b.seq)
	}
	subs := b.getSubsByType(evts[0].Type())
	b.mu.Unlock()
	for _, sub := range subs {
		sub.Push(evts...)
	}
}

// getSubsByType returns the subscribers for the type in key order. Must
// be called with the lock held.
func (b *Broker) getSubsByType(t events.Type) []Subscriber {
	// the entire ALL map is merged into type-specific maps on subscribe,
	// so a typed map, once it exists, is complete on its own
	subs, ok := b.tSubs[t]
	if !ok {
		subs = b.tSubs[events.All]
	}
	keys := make([]int, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	ret := make([]Subscriber, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, subs[k])
	}
	return ret
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	k := b.subscribe(s)
	s.SetID(k)
	b.mu.Unlock()
	return k
}

func (b *Broker) SubscribeBatch(subs ...Subscriber) {
	b.mu.Lock()
	for _, s := range subs {
		k := b.subscribe(s)
		s.SetID(k)
	}
	b.mu.Unlock()
}

func (b *Broker) subscribe(s Subscriber) int {
	k := b.getKey()
	b.subs[k] = s
	types := s.Types()
	// a subscriber asking for no types, or for All alongside anything
	// else, subscribes to everything
	isAll := false
	if len(types) == 0 {
		isAll = true
		types = []events.Type{events.All}
	} else {
		for _, t := range types {
			if t == events.All {
				types = []events.Type{events.All}
				isAll = true
				break
			}
		}
	}
	for _, t := range types {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]Subscriber{}
			if !isAll {
				// seed the new typed map with the all-event subscribers
				for ak, as := range b.tSubs[events.All] {
					b.tSubs[t][ak] = as
				}
			}
		}
		b.tSubs[t][k] = s
	}
	if isAll {
		for t := range b.tSubs {
			if t != events.All {
				b.tSubs[t][k] = s
			}
		}
	}
	if b.log.GetLevel() == logging.DebugLevel {
		b.log.Debug("subscriber registered",
			logging.Int("key", k),
			logging.Int("types", len(types)),
		)
	}
	return k
}

// Unsubscribe removes subscriber from broker.
// This does not change the state of the subscriber.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	b.rmSubs(k)
	b.mu.Unlock()
}

func (b *Broker) getKey() int {
	if len(b.keys) > 0 {
		k := b.keys[0]
		b.keys = b.keys[1:] // pop first element
		return k
	}
	return len(b.subs) + 1 // add 1 to avoid zero value
}

func (b *Broker) rmSubs(keys ...int) {
	for _, k := range keys {
		// if the sub doesn't exist, this could be a duplicate call
		// we do not want the keys slice to contain duplicate values
		// and so we have to check this first
		s, ok := b.subs[k]
		if !ok {
			return
		}
		types := s.Types()
		for _, t := range types {
			if t == events.All {
				types = nil
				break
			}
		}
		if len(types) == 0 {
			// remove in all subscribers then
			for _, v := range b.tSubs {
				delete(v, k)
			}
		} else {
			for _, t := range types {
				delete(b.tSubs[t], k) // remove key from typed subs map
			}
		}
		delete(b.subs, k)
		b.keys = append(b.keys, k)
	}
}
