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

// Package prototime owns protocol time. The host ledger advances it,
// once per atomic batch of operations, and every engine reads "now"
// from here instead of the wall clock, so time-gated preconditions are
// deterministic and testable.
package prototime

import (
	"context"
	"time"

	"code.futarchyprotocol.io/futarchy/logging"
)

// Svc represents the service managing the protocol time.
type Svc struct {
	config Config
	log    *logging.Logger

	previousTimestamp time.Time
	currentTimestamp  time.Time

	listeners []func(context.Context, time.Time)
}

// New instantiates a new protocol time service.
func New(log *logging.Logger, conf Config) *Svc {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Svc{
		config: conf,
		log:    log,
	}
}

// ReloadConf reloads the configuration for the time service.
func (s *Svc) ReloadConf(conf Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != conf.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", conf.Level.String()),
		)
		s.log.SetLevel(conf.Level.Get())
	}

	s.config = conf
}

// SetTimeNow updates the protocol time to the given value and notifies
// every registered listener. Time never moves backward, stale updates
// are dropped.
func (s *Svc) SetTimeNow(ctx context.Context, t time.Time) {
	t = t.UTC()
	if t.Before(s.currentTimestamp) {
		s.log.Warn("dropping protocol time update moving backward",
			logging.Time("current", s.currentTimestamp),
			logging.Time("update", t),
		)
		return
	}

	if !s.currentTimestamp.IsZero() {
		s.previousTimestamp = s.currentTimestamp
	}
	s.currentTimestamp = t
	if s.previousTimestamp.IsZero() {
		s.previousTimestamp = s.currentTimestamp
	}

	s.notify(ctx, s.currentTimestamp)
}

// GetTimeNow returns the current protocol time.
func (s *Svc) GetTimeNow() time.Time {
	return s.currentTimestamp
}

// GetTimeLastBatch returns the protocol time of the previous update.
func (s *Svc) GetTimeLastBatch() time.Time {
	return s.previousTimestamp
}

// NotifyOnTick allows other engines to register callbacks invoked on
// every protocol time update.
func (s *Svc) NotifyOnTick(callbacks ...func(context.Context, time.Time)) {
	s.listeners = append(s.listeners, callbacks...)
}

func (s *Svc) notify(ctx context.Context, t time.Time) {
	for _, f := range s.listeners {
		f(ctx, t)
	}
}
