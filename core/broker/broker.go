// Copyright (C) 2023 Gobalsky Labs Limited
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

// Package broker fans protocol events out to subscribers. Delivery is
// synchronous and in subscription order: every engine mutation and its
// observers land in the same deterministic sequence on every node.
package broker

import (
	"sync"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/logging"
)

// Subscriber receives the event types it asks for. An empty Types slice
// subscribes to everything, as does listing events.All.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/broker Subscriber
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
	SetID(id int)
	ID() int
}

type subscription struct {
	Subscriber
	// all short-circuits type filtering for catch-all subscribers
	all   bool
	types map[events.Type]struct{}
}

func (s *subscription) wants(t events.Type) bool {
	if s.all {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Broker is the event broker. Send and SendBatch stamp each event with
// the next sequence number and push it straight through to every
// matching subscriber before returning.
type Broker struct {
	Config
	log *logging.Logger

	mu   sync.Mutex
	subs map[int]*subscription
	// keys holds subscription keys in subscription order, the fan-out
	// order
	keys []int
	// free recycles keys of unsubscribed subscribers
	free []int
	seq  uint64
}

// New instantiates a new broker.
func New(log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		Config: config,
		log:    log,
		subs:   map[int]*subscription{},
		keys:   []int{},
		free:   []int{},
	}
}

// ReloadConf updates the internal configuration of the broker.
func (b *Broker) ReloadConf(config Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != config.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", config.Level.String()),
		)
		b.log.SetLevel(config.Level.Get())
	}
	b.mu.Lock()
	b.Config = config
	b.mu.Unlock()
}

// Send sends a single event to all matching subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch sends a batch of events to all matching subscribers, one
// Push call per subscriber with its filtered slice.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	for _, e := range evts {
		b.seq++
		e.SetSequenceID(b.seq)
	}
	// snapshot the subscriptions so a subscriber can unsubscribe itself
	// from inside Push
	keys := make([]int, len(b.keys))
	copy(keys, b.keys)
	subs := make(map[int]*subscription, len(b.subs))
	for k, s := range b.subs {
		subs[k] = s
	}
	b.mu.Unlock()

	for _, k := range keys {
		sub := subs[k]
		matched := make([]events.Event, 0, len(evts))
		for _, e := range evts {
			if sub.wants(e.Type()) {
				matched = append(matched, e)
			}
		}
		if len(matched) > 0 {
			sub.Push(matched...)
		}
	}
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	k := b.subscribe(s)
	b.mu.Unlock()
	return k
}

// SubscribeBatch registers a set of subscribers, assigning each its key.
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
	sub := &subscription{
		Subscriber: s,
		types:      map[events.Type]struct{}{},
	}
	types := s.Types()
	if len(types) == 0 {
		sub.all = true
	}
	for _, t := range types {
		if t == events.All {
			sub.all = true
			break
		}
		sub.types[t] = struct{}{}
	}
	b.subs[k] = sub
	b.keys = append(b.keys, k)
	if b.log.GetLevel() == logging.DebugLevel {
		b.log.Debug("subscriber registered", logging.Int("key", k))
	}
	return k
}

// Unsubscribe removes a subscriber from the broker. This does not change
// the state of the subscriber.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[k]; !ok {
		return
	}
	delete(b.subs, k)
	for i, key := range b.keys {
		if key == k {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
	b.free = append(b.free, k)
}

func (b *Broker) getKey() int {
	if len(b.free) > 0 {
		k := b.free[0]
		b.free = b.free[1:]
		return k
	}
	// add 1 to avoid the zero value
	return len(b.subs) + 1
}
