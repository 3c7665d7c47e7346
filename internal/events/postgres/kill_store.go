// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

// Package postgres implements the event store contracts on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/spyglass/spyglass/internal/events"
)

// poolIface is the subset of pgxpool.Pool the stores use. pgxmock's
// PgxPoolIface satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// reviveWindowSecs bounds how far back a revive can claim a death.
// Revives arrive within seconds of the death they undo.
const reviveWindowSecs = 50

// KillStore implements events.KillStore using PostgreSQL.
type KillStore struct {
	pool poolIface
}

// NewKillStore creates a new PostgreSQL kill store.
func NewKillStore(pool poolIface) *KillStore {
	return &KillStore{pool: pool}
}

// Insert stores a kill event and returns its row ID.
func (s *KillStore) Insert(ctx context.Context, ev events.KillEvent) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO kills (
			attacker_character_id, attacker_loadout_id, attacker_team_id,
			attacker_fire_mode_id, attacker_vehicle_id,
			killed_character_id, killed_loadout_id, killed_team_id,
			weapon_id, is_headshot, world_id, zone_id, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		ev.AttackerCharacterID,
		ev.AttackerLoadoutID,
		ev.AttackerTeamID,
		ev.AttackerFireModeID,
		ev.AttackerVehicleID,
		ev.KilledCharacterID,
		ev.KilledLoadoutID,
		ev.KilledTeamID,
		ev.WeaponID,
		ev.IsHeadshot,
		ev.WorldID,
		ev.ZoneID,
		ev.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, oops.Code("KILL_INSERT_FAILED").
			With("attacker_id", ev.AttackerCharacterID).
			With("killed_id", ev.KilledCharacterID).
			Wrap(err)
	}
	return id, nil
}

// SetRevivedID links a character's most recent unrevived death within
// the revive window to the experience row of the revive.
func (s *KillStore) SetRevivedID(ctx context.Context, killedCharacterID string, expID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE kills SET revived_exp_id = $2
		WHERE id = (
			SELECT id FROM kills
			WHERE killed_character_id = $1
				AND revived_exp_id IS NULL
				AND timestamp >= NOW() - make_interval(secs => $3)
			ORDER BY timestamp DESC
			LIMIT 1
		)
	`, killedCharacterID, expID, reviveWindowSecs)
	if err != nil {
		return oops.Code("KILL_REVIVE_LINK_FAILED").
			With("killed_id", killedCharacterID).
			With("exp_id", expID).
			Wrap(err)
	}
	return nil
}
