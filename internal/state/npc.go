// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package state

import (
	"sync"
	"time"
)

// NpcType enumerates the kinds of spawn-providing NPCs tracked.
type NpcType uint8

const (
	NpcUnknown NpcType = iota
	NpcSunderer
	NpcRouter
)

func (t NpcType) String() string {
	switch t {
	case NpcSunderer:
		return "sunderer"
	case NpcRouter:
		return "router"
	default:
		return "unknown"
	}
}

// TrackedNpc is the record for one spawn-providing NPC (deployed
// Sunderer or router) and how many spawns it has produced.
type TrackedNpc struct {
	NpcID   string
	OwnerID string
	Type    NpcType
	WorldID int16
	// SpawnCount increments once per qualifying experience event.
	SpawnCount    int64
	FirstSeenAt   time.Time
	LatestEventAt time.Time
}

// NpcStore is the shared NPC ID to record map.
type NpcStore struct {
	mu   sync.Mutex
	npcs map[string]*TrackedNpc
}

// NewNpcStore creates an empty NPC store.
func NewNpcStore() *NpcStore {
	return &NpcStore{npcs: make(map[string]*TrackedNpc)}
}

// RecordSpawn increments the spawn counter for an NPC, creating the
// record on first sight. Returns a copy of the updated record.
func (s *NpcStore) RecordSpawn(npcID, ownerID string, typ NpcType, worldID int16, at time.Time) TrackedNpc {
	s.mu.Lock()
	defer s.mu.Unlock()

	npc, ok := s.npcs[npcID]
	if !ok {
		npc = &TrackedNpc{
			NpcID:       npcID,
			OwnerID:     ownerID,
			Type:        typ,
			WorldID:     worldID,
			FirstSeenAt: at,
		}
		s.npcs[npcID] = npc
	}

	npc.SpawnCount++
	npc.LatestEventAt = at
	return *npc
}

// Get returns a copy of an NPC's record.
func (s *NpcStore) Get(npcID string) (TrackedNpc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	npc, ok := s.npcs[npcID]
	if !ok {
		return TrackedNpc{}, false
	}
	return *npc, true
}

// Snapshot returns copies of all NPC records.
func (s *NpcStore) Snapshot() []TrackedNpc {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrackedNpc, 0, len(s.npcs))
	for _, npc := range s.npcs {
		out = append(out, *npc)
	}
	return out
}
