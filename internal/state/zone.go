// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package state

import (
	"sync"
	"time"
)

// ZoneKey identifies one zone on one world.
type ZoneKey struct {
	WorldID int16
	ZoneID  int32
}

// ZoneState is the mutable record for one (world, zone) pair.
type ZoneState struct {
	WorldID int16
	ZoneID  int32
	// IsOpened is the continent lock/unlock flag.
	IsOpened bool
	// AlertStart is set while an alert is running, nil otherwise.
	AlertStart *time.Time
	// AlertEnd is AlertStart plus the resolved alert duration. Ending an
	// alert clears AlertStart but leaves AlertEnd as last computed; see
	// EndAlert.
	AlertEnd *time.Time
	// UnstableState is the contested/single-lane/double-lane/open
	// classification. It is written by the facility-control collaborator
	// and only read here; it may never be set.
	UnstableState string
}

// ZoneStore is the shared (world, zone) to zone record map. All
// mutations run under one exclusive section, mirroring CharacterStore.
type ZoneStore struct {
	mu    sync.Mutex
	zones map[ZoneKey]*ZoneState
}

// NewZoneStore creates an empty zone store.
func NewZoneStore() *ZoneStore {
	return &ZoneStore{zones: make(map[ZoneKey]*ZoneState)}
}

// getOrCreate requires s.mu held.
func (s *ZoneStore) getOrCreate(worldID int16, zoneID int32) *ZoneState {
	key := ZoneKey{WorldID: worldID, ZoneID: zoneID}
	z, ok := s.zones[key]
	if !ok {
		z = &ZoneState{WorldID: worldID, ZoneID: zoneID, IsOpened: true}
		s.zones[key] = z
	}
	return z
}

// SetOpened records a continent lock or unlock.
func (s *ZoneStore) SetOpened(worldID int16, zoneID int32, opened bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(worldID, zoneID).IsOpened = opened
}

// StartAlert records an alert start. When the alert's duration is
// resolvable, AlertEnd is set to start plus that duration; otherwise
// AlertEnd keeps whatever value it had (an unknown-length alert is a
// valid, degraded state).
func (s *ZoneStore) StartAlert(worldID int16, zoneID int32, start time.Time, duration time.Duration, hasDuration bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := s.getOrCreate(worldID, zoneID)
	z.AlertStart = &start
	if hasDuration {
		end := start.Add(duration)
		z.AlertEnd = &end
	}
}

// EndAlert records an alert end by clearing AlertStart. AlertEnd is
// deliberately left untouched: downstream displays keep the last known
// scheduled end. Flagged as a quirk, preserved on purpose.
func (s *ZoneStore) EndAlert(worldID int16, zoneID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(worldID, zoneID).AlertStart = nil
}

// SetUnstableState records the externally computed lane classification.
func (s *ZoneStore) SetUnstableState(worldID int16, zoneID int32, unstable string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(worldID, zoneID).UnstableState = unstable
}

// Get returns a copy of a zone's record.
func (s *ZoneStore) Get(worldID int16, zoneID int32) (ZoneState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[ZoneKey{WorldID: worldID, ZoneID: zoneID}]
	if !ok {
		return ZoneState{}, false
	}
	return copyZone(z), true
}

// Snapshot returns copies of all zone records.
func (s *ZoneStore) Snapshot() []ZoneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ZoneState, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, copyZone(z))
	}
	return out
}

// copyZone deep-copies the alert timestamps so callers cannot mutate
// store state through the returned value.
func copyZone(z *ZoneState) ZoneState {
	out := *z
	if z.AlertStart != nil {
		t := *z.AlertStart
		out.AlertStart = &t
	}
	if z.AlertEnd != nil {
		t := *z.AlertEnd
		out.AlertEnd = &t
	}
	return out
}
