// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyglass/spyglass/internal/census"
	"github.com/spyglass/spyglass/internal/state"
)

// fakeCharacterSource serves canned profiles.
type fakeCharacterSource struct {
	mu       sync.Mutex
	profiles map[string]*census.Character
	errs     map[string]error
}

func (s *fakeCharacterSource) Character(_ context.Context, characterID string) (*census.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[characterID]; ok {
		return nil, err
	}
	if c, ok := s.profiles[characterID]; ok {
		return c, nil
	}
	return nil, census.ErrCharacterNotFound
}

func TestCharacterCacheWorker_ResolvesProfile(t *testing.T) {
	players := state.NewCharacterStore()
	seedPlayer(players, "100", nil)

	queue := NewQueue[string]()
	source := &fakeCharacterSource{profiles: map[string]*census.Character{
		"100": {ID: "100", Name: "Higby", FactionID: census.FactionNC, WorldID: 17},
	}}
	worker := NewCharacterCacheWorker(queue, source, players, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	queue.Enqueue("100")

	require.Eventually(t, func() bool {
		p, _ := players.Get("100")
		return p.Name == "Higby"
	}, 2*time.Second, 10*time.Millisecond)

	p, _ := players.Get("100")
	assert.Equal(t, census.FactionNC, p.FactionID)
	assert.Equal(t, census.FactionNC, p.TeamID)

	cancel()
	<-done
}

func TestCharacterCacheWorker_PreservesPropagatedTeam(t *testing.T) {
	players := state.NewCharacterStore()
	seedPlayer(players, "ns-medic", func(p *state.TrackedPlayer) {
		// Support propagation already placed this NS character on VS
		// before the profile resolved.
		p.TeamID = census.FactionVS
	})

	queue := NewQueue[string]()
	source := &fakeCharacterSource{profiles: map[string]*census.Character{
		"ns-medic": {ID: "ns-medic", Name: "Helper", FactionID: census.FactionNS, WorldID: 17},
	}}
	worker := NewCharacterCacheWorker(queue, source, players, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	queue.Enqueue("ns-medic")

	require.Eventually(t, func() bool {
		p, _ := players.Get("ns-medic")
		return p.Name == "Helper"
	}, 2*time.Second, 10*time.Millisecond)

	p, _ := players.Get("ns-medic")
	assert.Equal(t, census.FactionNS, p.FactionID)
	assert.Equal(t, census.FactionVS, p.TeamID, "profile resolution must not undo support propagation")

	cancel()
	<-done
}

func TestCharacterCacheWorker_ContinuesPastNotFound(t *testing.T) {
	players := state.NewCharacterStore()
	seedPlayer(players, "good", nil)

	queue := NewQueue[string]()
	source := &fakeCharacterSource{profiles: map[string]*census.Character{
		"good": {ID: "good", Name: "Still Here", FactionID: census.FactionTR, WorldID: 17},
	}}
	worker := NewCharacterCacheWorker(queue, source, players, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	// A deleted character must not wedge the worker.
	queue.Enqueue("deleted")
	queue.Enqueue("good")

	require.Eventually(t, func() bool {
		p, _ := players.Get("good")
		return p.Name == "Still Here"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestCharacterCacheWorker_StopsOnCancel(t *testing.T) {
	worker := NewCharacterCacheWorker(NewQueue[string](), &fakeCharacterSource{}, state.NewCharacterStore(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionStarterWorker_OpensSessions(t *testing.T) {
	players := state.NewCharacterStore()
	store := newMemSessionStore()
	tracker := NewSessionTracker(players, store, testLogger())

	seedPlayer(players, "100", nil)

	queue := NewQueue[state.TrackedPlayer]()
	worker := NewSessionStarterWorker(queue, tracker, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	p, _ := players.Get("100")
	queue.Enqueue(p)
	// Redundant items are no-ops thanks to the online guard.
	queue.Enqueue(p)

	require.Eventually(t, func() bool {
		return store.openCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give the second item a chance to be (not) processed.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, store.openCount())

	cancel()
	<-done
}
