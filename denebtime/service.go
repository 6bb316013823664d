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

package denebtime

import (
	"context"
	"sync"
	"time"
)

// Svc is the manually advanced clock of the engine. The hosting layer
// sets the time once per settlement batch, engines only ever read it,
// so every run over the same inputs sees the same timestamps.
type Svc struct {
	config Config

	previousTimestamp time.Time
	currentTimestamp  time.Time

	listeners []func(context.Context, time.Time)
	mu        sync.Mutex
}

func New(conf Config) *Svc {
	return &Svc{config: conf}
}

// ReloadConf reload the configuration for the time service.
func (s *Svc) ReloadConf(conf Config) {
	// do nothing here, conf is kept for a later use
	s.config = conf
}

// SetTimeNow update the current time, and notifies the registered
// listeners in registration order.
func (s *Svc) SetTimeNow(ctx context.Context, t time.Time) {
	// ensure the t is always UTC
	t = t.UTC()

	s.mu.Lock()
	if !s.currentTimestamp.IsZero() {
		s.previousTimestamp = s.currentTimestamp
	}
	s.currentTimestamp = t
	if s.previousTimestamp.IsZero() {
		s.previousTimestamp = s.currentTimestamp
	}
	listeners := s.listeners
	s.mu.Unlock()

	for _, f := range listeners {
		f(ctx, t)
	}
}

// GetTimeNow returns the current engine time.
func (s *Svc) GetTimeNow() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTimestamp
}

// GetTimeLastBatch returns the engine time of the previous batch.
func (s *Svc) GetTimeLastBatch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previousTimestamp
}

// NotifyOnTick registers callbacks to be run once the engine time is
// updated.
func (s *Svc) NotifyOnTick(callbacks ...func(context.Context, time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, callbacks...)
}
