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

package broker_test

import (
	"context"
	"testing"
	"time"

	"code.denebmarkets.io/deneb/broker"
	"code.denebmarkets.io/deneb/core/events"
	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSub struct {
	id    int
	types []events.Type
	got   []events.Event
	// seen collects delivery markers when several subs share a journal
	journal *[]int
}

func (s *testSub) Push(evts ...events.Event) {
	s.got = append(s.got, evts...)
	if s.journal != nil {
		*s.journal = append(*s.journal, s.id)
	}
}

func (s *testSub) Types() []events.Type { return s.types }
func (s *testSub) SetID(id int)         { s.id = id }
func (s *testSub) ID() int              { return s.id }

func getTestBroker(t *testing.T) *broker.Broker {
	t.Helper()
	return broker.New(logging.NewTestLogger(), broker.NewDefaultConfig())
}

func timeEvent(sec int64) *events.Time {
	return events.NewTime(context.Background(), time.Unix(sec, 0))
}

func orderEvent(party string) *events.Order {
	return events.NewOrderEvent(context.Background(), &types.Order{
		ID:    1,
		Party: party,
		Price: num.NewUint(100),
		Size:  10,
	})
}

func TestSubscribeAndSend(t *testing.T) {
	t.Run("typed subscriber only sees its types", func(t *testing.T) {
		b := getTestBroker(t)
		sub := &testSub{types: []events.Type{events.OrderEvent}}
		b.Subscribe(sub)

		b.Send(orderEvent("alice"))
		b.Send(timeEvent(10))

		require.Len(t, sub.got, 1)
		assert.Equal(t, events.OrderEvent, sub.got[0].Type())
	})

	t.Run("all-event subscriber sees everything", func(t *testing.T) {
		b := getTestBroker(t)
		all := &testSub{}
		b.Subscribe(all)

		b.Send(orderEvent("alice"))
		b.Send(timeEvent(10))

		assert.Len(t, all.got, 2)
	})

	t.Run("all-event subscriber sees types registered after it", func(t *testing.T) {
		b := getTestBroker(t)
		all := &testSub{}
		b.Subscribe(all)
		typed := &testSub{types: []events.Type{events.OrderEvent}}
		b.Subscribe(typed)

		b.Send(orderEvent("alice"))

		assert.Len(t, all.got, 1)
		assert.Len(t, typed.got, 1)
	})

	t.Run("all-event subscriber joining late still sees typed events", func(t *testing.T) {
		b := getTestBroker(t)
		typed := &testSub{types: []events.Type{events.OrderEvent}}
		b.Subscribe(typed)
		all := &testSub{}
		b.Subscribe(all)

		b.Send(orderEvent("alice"))

		assert.Len(t, typed.got, 1)
		assert.Len(t, all.got, 1)
	})
}

func TestSequenceStamping(t *testing.T) {
	b := getTestBroker(t)
	sub := &testSub{}
	b.Subscribe(sub)

	b.Send(timeEvent(1))
	b.Send(timeEvent(2))
	b.Send(timeEvent(3))

	require.Len(t, sub.got, 3)
	for i, e := range sub.got {
		assert.EqualValues(t, i+1, e.Sequence())
	}

	// re-sending an already stamped event must not restamp it
	first := sub.got[0]
	b.Send(first)
	assert.EqualValues(t, 1, first.Sequence())
}

func TestSendBatch(t *testing.T) {
	b := getTestBroker(t)
	sub := &testSub{}
	b.Subscribe(sub)

	b.SendBatch([]events.Event{timeEvent(1), timeEvent(2)})
	b.SendBatch(nil)

	require.Len(t, sub.got, 2)
	assert.EqualValues(t, 1, sub.got[0].Sequence())
	assert.EqualValues(t, 2, sub.got[1].Sequence())
}

func TestUnsubscribe(t *testing.T) {
	t.Run("unsubscribed subscriber receives nothing further", func(t *testing.T) {
		b := getTestBroker(t)
		sub := &testSub{types: []events.Type{events.OrderEvent}}
		k := b.Subscribe(sub)

		b.Send(orderEvent("alice"))
		b.Unsubscribe(k)
		b.Send(orderEvent("bob"))

		assert.Len(t, sub.got, 1)
	})

	t.Run("double unsubscribe is a no-op", func(t *testing.T) {
		b := getTestBroker(t)
		sub := &testSub{}
		k := b.Subscribe(sub)
		b.Unsubscribe(k)
		assert.NotPanics(t, func() {
			b.Unsubscribe(k)
		})
	})

	t.Run("keys are reused after unsubscribe", func(t *testing.T) {
		b := getTestBroker(t)
		first := &testSub{}
		k := b.Subscribe(first)
		b.Unsubscribe(k)

		second := &testSub{}
		assert.Equal(t, k, b.Subscribe(second))
		assert.Equal(t, k, second.ID())
	})
}

func TestDeliveryOrderIsDeterministic(t *testing.T) {
	b := getTestBroker(t)
	journal := []int{}
	subA := &testSub{journal: &journal}
	subB := &testSub{journal: &journal}
	subC := &testSub{journal: &journal}
	b.SubscribeBatch(subA, subB, subC)

	b.Send(timeEvent(1))
	b.Send(timeEvent(2))

	// fan-out follows subscription key order on every send
	assert.Equal(t, []int{subA.id, subB.id, subC.id, subA.id, subB.id, subC.id}, journal)
}
