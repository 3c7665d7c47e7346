// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

// Package events defines the durable event records the tracker emits
// (kills, experience ticks, sessions) and the narrow store contracts
// they are written through. Writes are fire-and-forget from the
// ingestion path: a failed insert is logged, never retried, and never
// rolls back in-memory state.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrSessionAlreadyOpen is returned by SessionStore.Open when the
// character already has an open session. Callers treat it as benign:
// the Online guard makes it rare, but duplicate deliveries around feed
// reconnects can race it.
var ErrSessionAlreadyOpen = errors.New("events: character already has an open session")

// KillEvent is one death event, with team IDs resolved through the
// character store at processing time so NS support propagation is
// reflected.
type KillEvent struct {
	ID                  int64
	AttackerCharacterID string
	AttackerLoadoutID   int16
	AttackerTeamID      int16
	AttackerFireModeID  int
	AttackerVehicleID   int
	KilledCharacterID   string
	KilledLoadoutID     int16
	KilledTeamID        int16
	WeaponID            string
	IsHeadshot          bool
	WorldID             int16
	ZoneID              int32
	Timestamp           time.Time
	// RevivedByExpID links to the experience row of the revive that
	// undid this death, when one was observed.
	RevivedByExpID *int64
}

// KillStore persists kill events.
type KillStore interface {
	// Insert stores a kill event and returns its row ID.
	Insert(ctx context.Context, ev KillEvent) (int64, error)
	// SetRevivedID links the most recent unrevived death of a character
	// to the experience row of the revive.
	SetRevivedID(ctx context.Context, killedCharacterID string, expID int64) error
}

// ExpEvent is one experience gain event.
type ExpEvent struct {
	ID           int64
	SourceID     string
	ExperienceID int
	LoadoutID    int16
	TeamID       int16
	Amount       int
	OtherID      string
	WorldID      int16
	ZoneID       int32
	Timestamp    time.Time
}

// ExpStore persists experience events.
type ExpStore interface {
	// Insert stores an experience event and returns its row ID.
	Insert(ctx context.Context, ev ExpEvent) (int64, error)
}

// Session is one span of a character being online.
type Session struct {
	ID          ulid.ULID
	CharacterID string
	WorldID     int16
	TeamID      int16
	Start       time.Time
	// End is nil while the session is open.
	End *time.Time
}

// SessionStore persists sessions.
type SessionStore interface {
	// Open stores a new session row.
	Open(ctx context.Context, s Session) error
	// Close sets the end timestamp on the character's open session.
	Close(ctx context.Context, characterID string, end time.Time) error
}
