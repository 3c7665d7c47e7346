// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

// Package state holds the in-memory tracking state: which characters
// are online and on what team, zone alert/lock status, and tracked NPC
// spawn counters. Each store is an explicitly constructed container
// shared by injection; every read-modify-write runs under the store's
// single exclusive section so invariants spanning multiple records hold
// under concurrent feed delivery.
package state

import (
	"sync"
	"time"

	"github.com/spyglass/spyglass/internal/census"
)

// TrackedPlayer is the mutable record for one character currently of
// interest to the tracker.
type TrackedPlayer struct {
	// ID is the census character ID.
	ID string
	// Name is filled in by background profile resolution.
	Name    string
	WorldID int16
	// ZoneID is -1 until a zone is observed.
	ZoneID int32
	// FactionID is the character's intrinsic faction, FactionUnknown
	// until resolved from a loadout or profile.
	FactionID int16
	// TeamID is the effective allegiance used for event attribution.
	// Normally equal to FactionID; for NS characters it is overwritten
	// to the side they are actively supporting.
	TeamID int16
	// Online drives session start/end derivation. New records default
	// to false so the first observed activity still starts a session.
	Online bool
	// LatestEventAt marks the last observed activity. Idle cleanup
	// collaborators read it; this package only writes it.
	LatestEventAt time.Time
}

// CharacterStore is the shared character ID to player record map.
type CharacterStore struct {
	mu      sync.Mutex
	players map[string]*TrackedPlayer
}

// NewCharacterStore creates an empty character store.
func NewCharacterStore() *CharacterStore {
	return &CharacterStore{players: make(map[string]*TrackedPlayer)}
}

// PlayerSet is the mutable view of the store passed to Mutate callbacks.
// It is only valid for the duration of the callback.
type PlayerSet struct {
	players map[string]*TrackedPlayer
}

// Get returns the live record for a character, or nil if absent.
func (ps PlayerSet) Get(characterID string) *TrackedPlayer {
	return ps.players[characterID]
}

// GetOrCreate returns the live record for a character, inserting def
// (with ID forced to characterID) when absent.
func (ps PlayerSet) GetOrCreate(characterID string, def TrackedPlayer) *TrackedPlayer {
	if p, ok := ps.players[characterID]; ok {
		return p
	}
	def.ID = characterID
	p := &def
	ps.players[characterID] = p
	return p
}

// Remove deletes a character record. Used by idle cleanup, never by
// event processing.
func (ps PlayerSet) Remove(characterID string) {
	delete(ps.players, characterID)
}

// Mutate runs fn under the store's exclusive section. All multi-field
// and multi-record updates go through here; fn must not block or call
// out to durable stores or queues.
func (s *CharacterStore) Mutate(fn func(ps PlayerSet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(PlayerSet{players: s.players})
}

// Get returns a copy of a character's record.
func (s *CharacterStore) Get(characterID string) (TrackedPlayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[characterID]
	if !ok {
		return TrackedPlayer{}, false
	}
	return *p, true
}

// Snapshot returns copies of all records, for presentation collaborators.
func (s *CharacterStore) Snapshot() []TrackedPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrackedPlayer, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	return out
}

// OnlineCount returns the number of characters currently online.
func (s *CharacterStore) OnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if p.Online {
			n++
		}
	}
	return n
}

// NewPlayerDefaults returns the record defaults used when an event
// references a character the store has never seen. Online must default
// to false so the first activity for the character still starts a
// session.
func NewPlayerDefaults(worldID int16) TrackedPlayer {
	return TrackedPlayer{
		WorldID:   worldID,
		ZoneID:    -1,
		FactionID: census.FactionUnknown,
		TeamID:    census.FactionUnknown,
		Online:    false,
	}
}
