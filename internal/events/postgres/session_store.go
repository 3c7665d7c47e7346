// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/spyglass/spyglass/internal/events"
)

// SessionStore implements events.SessionStore using PostgreSQL.
type SessionStore struct {
	pool poolIface
}

// NewSessionStore creates a new PostgreSQL session store.
func NewSessionStore(pool poolIface) *SessionStore {
	return &SessionStore{pool: pool}
}

// Open stores a new session row. A partial unique index on
// (character_id) WHERE finish IS NULL enforces one open session per
// character; violations map to ErrSessionAlreadyOpen.
func (s *SessionStore) Open(ctx context.Context, sess events.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, character_id, world_id, team_id, start)
		VALUES ($1, $2, $3, $4, $5)
	`,
		sess.ID.String(),
		sess.CharacterID,
		sess.WorldID,
		sess.TeamID,
		sess.Start,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return events.ErrSessionAlreadyOpen
		}
		return oops.Code("SESSION_OPEN_FAILED").
			With("character_id", sess.CharacterID).
			Wrap(err)
	}
	return nil
}

// Close sets the end timestamp on the character's open session. Closing
// a character with no open session is a no-op.
func (s *SessionStore) Close(ctx context.Context, characterID string, end time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET finish = $2
		WHERE character_id = $1 AND finish IS NULL
	`, characterID, end)
	if err != nil {
		return oops.Code("SESSION_CLOSE_FAILED").
			With("character_id", characterID).
			Wrap(err)
	}
	return nil
}
