package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDAO_Insert_RejectsDuplicateSessionID(t *testing.T) {
	db := newTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	_, err := d.Insert(ctx, RaceSession{
		SessionID:   "S-100",
		SessionName: "Friday Night Heat 1",
		SessionDate: time.Now().UTC(),
		SessionType: "race",
	})
	require.NoError(t, err)

	// Re-ingesting the same export must not duplicate rows.
	_, err = d.Insert(ctx, RaceSession{
		SessionID:   "S-100",
		SessionName: "Friday Night Heat 1 (retry)",
		SessionDate: time.Now().UTC(),
		SessionType: "race",
	})
	assert.ErrorIs(t, err, ErrDuplicateSessionID)

	var count int64
	require.NoError(t, db.Model(&RaceSession{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSessionDAO_FindBySessionID_PreloadsResults(t *testing.T) {
	db := newTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	seedSession(t, db, "S-100", time.Now().UTC(), []DriverResult{
		{
			DriverName:    "Diego R",
			KartNumber:    7,
			FinalPosition: 2,
			BestTimeMS:    41000,
			TotalLaps:     2,
			Laps: []Lap{
				{LapNumber: 1, TimeMS: 42000, Position: 3},
				{LapNumber: 2, TimeMS: 41000, Position: 2},
			},
		},
	})

	session, err := d.FindBySessionID(ctx, "S-100")
	require.NoError(t, err)
	require.Len(t, session.Results, 1)
	assert.Len(t, session.Results[0].Laps, 2)

	_, err = d.FindBySessionID(ctx, "S-999")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionDAO_MarkProcessed(t *testing.T) {
	db := newTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	seedSession(t, db, "S-100", time.Now().UTC(), nil)

	require.NoError(t, d.MarkProcessed(ctx, "S-100"))

	session, err := d.FindBySessionID(ctx, "S-100")
	require.NoError(t, err)
	assert.True(t, session.Processed)

	assert.ErrorIs(t, d.MarkProcessed(ctx, "S-999"), ErrSessionNotFound)
}

func TestSessionDAO_FindResultsByDriverName(t *testing.T) {
	db := newTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	seedSession(t, db, "S-102", base.Add(48*time.Hour), []DriverResult{
		{DriverName: "DIEGO R", FinalPosition: 1, BestTimeMS: 40500},
	})
	seedSession(t, db, "S-100", base, []DriverResult{
		{DriverName: "Diego R", FinalPosition: 2, BestTimeMS: 41000},
		{DriverName: "Marta V", FinalPosition: 1, BestTimeMS: 40900},
	})
	seedSession(t, db, "S-101", base.Add(24*time.Hour), []DriverResult{
		{DriverName: "diego r", FinalPosition: 5, BestTimeMS: 42500},
	})

	// Matching is case-insensitive and rows come back oldest first.
	rows, err := d.FindResultsByDriverName(ctx, "Diego R")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "S-100", rows[0].SessionID)
	assert.Equal(t, "S-101", rows[1].SessionID)
	assert.Equal(t, "S-102", rows[2].SessionID)
}

func TestSessionDAO_HasDriverInSession(t *testing.T) {
	db := newTestDB(t)
	d := NewSessionDAO(db)
	ctx := context.Background()

	seedSession(t, db, "S-100", time.Now().UTC(), []DriverResult{
		{DriverName: "Diego R", FinalPosition: 2, BestTimeMS: 41000},
	})

	appears, err := d.HasDriverInSession(ctx, "S-100", "diego r")
	require.NoError(t, err)
	assert.True(t, appears)

	appears, err = d.HasDriverInSession(ctx, "S-100", "Marta V")
	require.NoError(t, err)
	assert.False(t, appears)
}
