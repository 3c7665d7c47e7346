// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyglass/spyglass/internal/events"
)

func sampleExp() events.ExpEvent {
	return events.ExpEvent{
		SourceID:     "medic",
		ExperienceID: 7,
		LoadoutID:    17,
		TeamID:       1,
		Amount:       75,
		OtherID:      "patient",
		WorldID:      17,
		ZoneID:       2,
		Timestamp:    time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestExpStore_Insert(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   bool
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				ev := sampleExp()
				mock.ExpectQuery(`INSERT INTO exp_events`).
					WithArgs(
						ev.SourceID, ev.ExperienceID, ev.LoadoutID, ev.TeamID,
						ev.Amount, ev.OtherID, ev.WorldID, ev.ZoneID, ev.Timestamp,
					).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
			},
			wantID: 9,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				ev := sampleExp()
				mock.ExpectQuery(`INSERT INTO exp_events`).
					WithArgs(
						ev.SourceID, ev.ExperienceID, ev.LoadoutID, ev.TeamID,
						ev.Amount, ev.OtherID, ev.WorldID, ev.ZoneID, ev.Timestamp,
					).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
			errMsg:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			store := NewExpStore(mock)
			id, err := store.Insert(context.Background(), sampleExp())

			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
