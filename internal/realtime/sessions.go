// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package realtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spyglass/spyglass/internal/events"
	"github.com/spyglass/spyglass/internal/state"
)

// SessionTracker derives session starts and ends from player state
// transitions. The Online flag is flipped under the character store's
// exclusive section before the durable write, so a continuous session
// can never produce two start requests even when events race.
type SessionTracker struct {
	players *state.CharacterStore
	store   events.SessionStore
	log     *slog.Logger
	now     func() time.Time
}

// NewSessionTracker creates a session tracker.
func NewSessionTracker(players *state.CharacterStore, store events.SessionStore, log *slog.Logger) *SessionTracker {
	return &SessionTracker{
		players: players,
		store:   store,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session for a character that is not yet online. Calling
// it for an unknown or already-online character is a no-op.
func (t *SessionTracker) Start(ctx context.Context, characterID string) error {
	var (
		started bool
		sess    events.Session
	)
	t.players.Mutate(func(ps state.PlayerSet) {
		p := ps.Get(characterID)
		if p == nil || p.Online {
			return
		}
		p.Online = true
		started = true
		sess = events.Session{
			ID:          ulid.Make(),
			CharacterID: p.ID,
			WorldID:     p.WorldID,
			TeamID:      p.TeamID,
			Start:       t.now(),
		}
	})
	if !started {
		return nil
	}

	if err := t.store.Open(ctx, sess); err != nil {
		if errors.Is(err, events.ErrSessionAlreadyOpen) {
			t.log.DebugContext(ctx, "session already open", slog.String("character_id", characterID))
			return nil
		}
		WriteFailures.WithLabelValues("sessions").Inc()
		return err
	}
	return nil
}

// End closes a character's session on logout. Calling it for an unknown
// or offline character is a no-op.
func (t *SessionTracker) End(ctx context.Context, characterID string) error {
	ended := false
	t.players.Mutate(func(ps state.PlayerSet) {
		p := ps.Get(characterID)
		if p == nil || !p.Online {
			return
		}
		p.Online = false
		ended = true
	})
	if !ended {
		return nil
	}

	if err := t.store.Close(ctx, characterID, t.now()); err != nil {
		WriteFailures.WithLabelValues("sessions").Inc()
		return err
	}
	return nil
}
