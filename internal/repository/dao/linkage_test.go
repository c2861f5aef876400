package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkageDAO_Insert_OnePendingPerUser(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	user := seedUser(t, db, "Diego", "diego@example.com")

	first, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", first.Status)

	_, err = d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego Ramirez",
		SelectedDriverName: "Diego Ramirez",
		SelectedSessionID:  "S-101",
	})
	assert.ErrorIs(t, err, ErrDuplicatePendingRequest)
}

func TestLinkageDAO_Cancel_ThenResubmit(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	user := seedUser(t, db, "Diego", "diego@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	cancelled, err := d.Cancel(ctx, req.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	// A closed request no longer blocks a new claim.
	_, err = d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego Ramirez",
		SelectedDriverName: "Diego Ramirez",
		SelectedSessionID:  "S-101",
	})
	assert.NoError(t, err)
}

func TestLinkageDAO_Cancel_NotOwnRequest(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	owner := seedUser(t, db, "Diego", "diego@example.com")
	other := seedUser(t, db, "Marta", "marta@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          owner.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	_, err = d.Cancel(ctx, req.ID, other.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestLinkageDAO_Approve_WritesLink(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	user := seedUser(t, db, "Diego", "diego@example.com")
	admin := seedUser(t, db, "Admin", "admin@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	approved, err := d.Approve(ctx, req.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin.ID, *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	var linked User
	require.NoError(t, db.First(&linked, user.ID).Error)
	require.NotNil(t, linked.DriverName)
	assert.Equal(t, "Diego R", *linked.DriverName)
	assert.Equal(t, "linked", linked.LinkStatus)
	assert.NotNil(t, linked.LinkedAt)

	// Approval flags the account's statistics for recomputation.
	var stats UserStatistics
	require.NoError(t, db.First(&stats, "user_id = ?", user.ID).Error)
	assert.Equal(t, "stale", stats.State)
}

func TestLinkageDAO_Approve_ConflictLeavesBothAccountsUntouched(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	holder := seedLinkedUser(t, db, "Marta", "marta@example.com", "Diego R")
	claimant := seedUser(t, db, "Diego", "diego@example.com")
	admin := seedUser(t, db, "Admin", "admin@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          claimant.ID,
		SearchedName:       "diego r",
		SelectedDriverName: "diego r", // conflict check is case-insensitive
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	_, err = d.Approve(ctx, req.ID, admin.ID)
	assert.ErrorIs(t, err, ErrConflictingLink)

	var unchanged User
	require.NoError(t, db.First(&unchanged, claimant.ID).Error)
	assert.Nil(t, unchanged.DriverName)
	assert.Empty(t, unchanged.LinkStatus)

	var still User
	require.NoError(t, db.First(&still, holder.ID).Error)
	require.NotNil(t, still.DriverName)
	assert.Equal(t, "Diego R", *still.DriverName)

	// The failed approval leaves the request pending for the admin to
	// reject or retry once the conflict is resolved.
	stored, err := d.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", stored.Status)
}

func TestLinkageDAO_Approve_RelinkKeepsPreviousName(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	user := seedLinkedUser(t, db, "Diego", "diego@example.com", "Diego R")
	admin := seedUser(t, db, "Admin", "admin@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego Ramirez",
		SelectedDriverName: "Diego Ramirez",
		SelectedSessionID:  "S-200",
	})
	require.NoError(t, err)

	_, err = d.Approve(ctx, req.ID, admin.ID)
	require.NoError(t, err)

	var linked User
	require.NoError(t, db.First(&linked, user.ID).Error)
	require.NotNil(t, linked.DriverName)
	assert.Equal(t, "Diego Ramirez", *linked.DriverName)
	require.NotNil(t, linked.PreviousDriverName)
	assert.Equal(t, "Diego R", *linked.PreviousDriverName)
}

func TestLinkageDAO_Approve_NotPending(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	user := seedUser(t, db, "Diego", "diego@example.com")
	admin := seedUser(t, db, "Admin", "admin@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	_, err = d.Approve(ctx, req.ID, admin.ID)
	require.NoError(t, err)

	_, err = d.Approve(ctx, req.ID, admin.ID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestLinkageDAO_Reject_ThenResubmit(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	user := seedUser(t, db, "Diego", "diego@example.com")
	admin := seedUser(t, db, "Admin", "admin@example.com")

	req, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	rejected, err := d.Reject(ctx, req.ID, admin.ID, "name belongs to another regular")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "name belongs to another regular", rejected.RejectReason)

	var unchanged User
	require.NoError(t, db.First(&unchanged, user.ID).Error)
	assert.Nil(t, unchanged.DriverName)

	_, err = d.Insert(ctx, LinkageRequest{
		WebUserID:          user.ID,
		SearchedName:       "Diego Ramirez",
		SelectedDriverName: "Diego Ramirez",
		SelectedSessionID:  "S-101",
	})
	assert.NoError(t, err)
}

func TestLinkageDAO_FindPending_OldestFirst(t *testing.T) {
	db := newTestDB(t)
	d := NewLinkageDAO(db)
	ctx := context.Background()

	older := seedUser(t, db, "Diego", "diego@example.com")
	newer := seedUser(t, db, "Marta", "marta@example.com")

	early := LinkageRequest{
		WebUserID:          older.ID,
		SearchedName:       "Diego R",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
		Status:             "pending",
		CreatedAt:          time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&early).Error)

	_, err := d.Insert(ctx, LinkageRequest{
		WebUserID:          newer.ID,
		SearchedName:       "Marta V",
		SelectedDriverName: "Marta V",
		SelectedSessionID:  "S-101",
	})
	require.NoError(t, err)

	pending, err := d.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].WebUserID)
	assert.Equal(t, newer.ID, pending[1].WebUserID)
}
