// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package realtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spyglass/spyglass/internal/census"
	"github.com/spyglass/spyglass/internal/state"
)

// CharacterCacheWorker drains the character queue, resolving full
// profiles from the census API and filling in faction/team/name on
// records that are still unresolved. Resolution is slow and happens
// entirely outside the store's exclusive section.
type CharacterCacheWorker struct {
	queue   *Queue[string]
	source  census.CharacterSource
	players *state.CharacterStore
	log     *slog.Logger
}

// NewCharacterCacheWorker creates a character cache worker.
func NewCharacterCacheWorker(queue *Queue[string], source census.CharacterSource, players *state.CharacterStore, log *slog.Logger) *CharacterCacheWorker {
	return &CharacterCacheWorker{queue: queue, source: source, players: players, log: log}
}

// Run pulls one character ID at a time until ctx is cancelled. Items
// may repeat; redundant resolutions are harmless.
func (w *CharacterCacheWorker) Run(ctx context.Context) error {
	for {
		characterID, err := w.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		QueueDepth.WithLabelValues("characters").Set(float64(w.queue.Len()))

		c, err := w.source.Character(ctx, characterID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			level := slog.LevelWarn
			if errors.Is(err, census.ErrCharacterNotFound) {
				level = slog.LevelDebug
			}
			w.log.Log(ctx, level, "character profile resolution failed",
				slog.String("character_id", characterID), slog.String("error", err.Error()))
			continue
		}

		w.players.Mutate(func(ps state.PlayerSet) {
			p := ps.Get(characterID)
			if p == nil {
				return
			}
			p.Name = c.Name
			if p.WorldID == 0 {
				p.WorldID = c.WorldID
			}
			if p.FactionID == census.FactionUnknown {
				p.FactionID = c.FactionID
				// Keep a team set by support propagation.
				if p.TeamID == census.FactionUnknown {
					p.TeamID = c.FactionID
				}
			}
		})
	}
}

// SessionStarterWorker drains the session queue, eagerly materializing
// session rows for players first seen through combat events.
type SessionStarterWorker struct {
	queue    *Queue[state.TrackedPlayer]
	sessions *SessionTracker
	log      *slog.Logger
}

// NewSessionStarterWorker creates a session starter worker.
func NewSessionStarterWorker(queue *Queue[state.TrackedPlayer], sessions *SessionTracker, log *slog.Logger) *SessionStarterWorker {
	return &SessionStarterWorker{queue: queue, sessions: sessions, log: log}
}

// Run pulls one player at a time until ctx is cancelled. Start's Online
// guard makes redundant items no-ops.
func (w *SessionStarterWorker) Run(ctx context.Context) error {
	for {
		p, err := w.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		QueueDepth.WithLabelValues("sessions").Set(float64(w.queue.Len()))

		if err := w.sessions.Start(ctx, p.ID); err != nil {
			w.log.ErrorContext(ctx, "failed to start session",
				slog.String("character_id", p.ID), slog.String("error", err.Error()))
		}
	}
}
