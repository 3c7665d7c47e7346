// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/spyglass/spyglass/internal/events"
)

// ExpStore implements events.ExpStore using PostgreSQL.
type ExpStore struct {
	pool poolIface
}

// NewExpStore creates a new PostgreSQL experience store.
func NewExpStore(pool poolIface) *ExpStore {
	return &ExpStore{pool: pool}
}

// Insert stores an experience event and returns its row ID.
func (s *ExpStore) Insert(ctx context.Context, ev events.ExpEvent) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO exp_events (
			source_character_id, experience_id, loadout_id, team_id,
			amount, other_id, world_id, zone_id, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		ev.SourceID,
		ev.ExperienceID,
		ev.LoadoutID,
		ev.TeamID,
		ev.Amount,
		ev.OtherID,
		ev.WorldID,
		ev.ZoneID,
		ev.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, oops.Code("EXP_INSERT_FAILED").
			With("source_id", ev.SourceID).
			With("experience_id", ev.ExperienceID).
			Wrap(err)
	}
	return id, nil
}
