package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSquadron(t *testing.T, d *SquadronDAO, name string, captainID uint) Squadron {
	t.Helper()

	squadron, err := d.Insert(context.Background(), Squadron{Name: name}, captainID)
	require.NoError(t, err)

	return squadron
}

func TestSquadronDAO_Insert(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Diego", "diego@example.com")

	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)
	assert.Equal(t, captain.ID, squadron.CaptainID)
	assert.True(t, squadron.IsActive)

	members, err := d.FindMembers(ctx, squadron.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, captain.ID, members[0].UserID)

	_, err = d.Insert(ctx, Squadron{Name: "Apex Hunters"}, seedUser(t, db, "Marta", "marta@example.com").ID)
	assert.ErrorIs(t, err, ErrSquadronNameExists)
}

func TestSquadronDAO_AddMember_CapacityAndSingleMembership(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	// Fill to the four-member cap.
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		member := seedUser(t, db, "Member "+email, email)
		require.NoError(t, d.AddMember(ctx, squadron.ID, member.ID))
	}

	fifth := seedUser(t, db, "Fifth", "fifth@example.com")
	assert.ErrorIs(t, d.AddMember(ctx, squadron.ID, fifth.ID), ErrSquadronFull)

	members, err := d.FindMembers(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	// A member of one squadron cannot join another.
	other := seedSquadron(t, d, "Late Brakers", fifth.ID)
	assert.ErrorIs(t, d.AddMember(ctx, other.ID, captain.ID), ErrAlreadyInSquadron)
}

func TestSquadronDAO_RemoveMember_CaptainRules(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	member := seedUser(t, db, "Member", "member@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)
	require.NoError(t, d.AddMember(ctx, squadron.ID, member.ID))

	// A captain with other members cannot leave.
	err := d.RemoveMember(ctx, squadron.ID, captain.ID, captain.ID)
	assert.ErrorIs(t, err, ErrCaptainMustTransferFirst)

	// A non-captain cannot kick.
	err = d.RemoveMember(ctx, squadron.ID, captain.ID, member.ID)
	assert.ErrorIs(t, err, ErrNotCaptain)

	require.NoError(t, d.TransferCaptaincy(ctx, squadron.ID, captain.ID, member.ID))

	// After transfer the old captain leaves freely.
	require.NoError(t, d.RemoveMember(ctx, squadron.ID, captain.ID, captain.ID))

	members, err := d.FindMembers(ctx, squadron.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, member.ID, members[0].UserID)
}

func TestSquadronDAO_RemoveMember_LastMemberDeactivates(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	_, err := d.AppendPoints(ctx, SquadronPointsHistory{
		SquadronID:   squadron.ID,
		PointsChange: 25,
		ChangeType:   "race_event",
		ModifiedBy:   captain.ID,
	})
	require.NoError(t, err)

	require.NoError(t, d.RemoveMember(ctx, squadron.ID, captain.ID, captain.ID))

	stored, err := d.FindByID(ctx, squadron.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Zero(t, stored.FairRacingAverage)

	members, err := d.FindMembers(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	// History survives deactivation.
	entries, err := d.FindPointsHistory(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// No one can join an inactive squadron.
	late := seedUser(t, db, "Late", "late@example.com")
	assert.ErrorIs(t, d.AddMember(ctx, squadron.ID, late.ID), ErrSquadronInactive)
}

func TestSquadronDAO_TransferCaptaincy_TargetMustBeMember(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	outsider := seedUser(t, db, "Outsider", "outsider@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	assert.ErrorIs(t, d.TransferCaptaincy(ctx, squadron.ID, captain.ID, outsider.ID), ErrNotMember)
	assert.ErrorIs(t, d.TransferCaptaincy(ctx, squadron.ID, outsider.ID, captain.ID), ErrNotCaptain)
}

func TestSquadronDAO_Invites(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	invitee := seedUser(t, db, "Invitee", "invitee@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	invite, err := d.InsertInvite(ctx, SquadronInvite{
		SquadronID: squadron.ID,
		InviterID:  captain.ID,
		InviteeID:  invitee.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", invite.Status)

	_, err = d.InsertInvite(ctx, SquadronInvite{
		SquadronID: squadron.ID,
		InviterID:  captain.ID,
		InviteeID:  invitee.ID,
	})
	assert.ErrorIs(t, err, ErrDuplicateInvite)

	invites, err := d.FindInvitesForUser(ctx, invitee.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)

	accepted, err := d.AcceptInvite(ctx, invite.ID, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)

	members, err := d.FindMembers(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// Accepting twice is rejected.
	_, err = d.AcceptInvite(ctx, invite.ID, invitee.ID)
	assert.ErrorIs(t, err, ErrInviteNotPending)
}

func TestSquadronDAO_AcceptInvite_RevalidatesCapacity(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	invitee := seedUser(t, db, "Invitee", "invitee@example.com")
	invite, err := d.InsertInvite(ctx, SquadronInvite{
		SquadronID: squadron.ID,
		InviterID:  captain.ID,
		InviteeID:  invitee.ID,
	})
	require.NoError(t, err)

	// The squadron fills up while the invite sits pending.
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		member := seedUser(t, db, "Member "+email, email)
		require.NoError(t, d.AddMember(ctx, squadron.ID, member.ID))
	}

	_, err = d.AcceptInvite(ctx, invite.ID, invitee.ID)
	assert.ErrorIs(t, err, ErrSquadronFull)
}

func TestSquadronDAO_AppendPoints_ChainsTotals(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	first, err := d.AppendPoints(ctx, SquadronPointsHistory{
		SquadronID:   squadron.ID,
		PointsChange: 25,
		ChangeType:   "race_event",
		ModifiedBy:   captain.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, first.PreviousTotal)
	assert.Equal(t, 25, first.NewTotal)

	second, err := d.AppendPoints(ctx, SquadronPointsHistory{
		SquadronID:   squadron.ID,
		PointsChange: -10,
		ChangeType:   "penalty",
		ModifiedBy:   captain.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, second.PreviousTotal)
	assert.Equal(t, 15, second.NewTotal)

	total, err := d.SumPoints(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, total)

	// The display cache follows the ledger.
	stored, err := d.FindByID(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.TotalPoints)

	entries, err := d.FindPointsHistory(ctx, squadron.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 25, entries[0].PointsChange)
	assert.Equal(t, -10, entries[1].PointsChange)
}

func TestSquadronDAO_AppendPoints_RevertSumsBackOut(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	captain := seedUser(t, db, "Captain", "captain@example.com")
	squadron := seedSquadron(t, d, "Apex Hunters", captain.ID)

	_, err := d.AppendPoints(ctx, SquadronPointsHistory{
		SquadronID:   squadron.ID,
		PointsChange: 40,
		ChangeType:   "race_event",
		ModifiedBy:   captain.ID,
	})
	require.NoError(t, err)

	reverted, err := d.AppendPoints(ctx, SquadronPointsHistory{
		SquadronID:   squadron.ID,
		PointsChange: -40,
		ChangeType:   "revert",
		Reason:       "scoring error at round 3",
		ModifiedBy:   captain.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, reverted.NewTotal)

	// Correction lives in history; nothing was edited away.
	entries, err := d.FindPointsHistory(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	total, err := d.SumPoints(ctx, squadron.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestSquadronDAO_SumPoints_UnknownSquadron(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)

	_, err := d.SumPoints(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSquadronNotFound)
}

func TestSquadronDAO_FindRankings_OrderAndTieBreak(t *testing.T) {
	db := newTestDB(t)
	d := NewSquadronDAO(db)
	ctx := context.Background()

	strong := seedUser(t, db, "Strong", "strong@example.com")
	strong.FairRacingScore = 90
	require.NoError(t, db.Save(&strong).Error)
	weak := seedUser(t, db, "Weak", "weak@example.com")
	weak.FairRacingScore = 40
	require.NoError(t, db.Save(&weak).Error)
	leader := seedUser(t, db, "Leader", "leader@example.com")

	top := seedSquadron(t, d, "Front Runners", leader.ID)
	fair := seedSquadron(t, d, "Fair Racers", strong.ID)
	rough := seedSquadron(t, d, "Rough Racers", weak.ID)

	_, err := d.AppendPoints(ctx, SquadronPointsHistory{SquadronID: top.ID, PointsChange: 50, ChangeType: "race_event", ModifiedBy: leader.ID})
	require.NoError(t, err)
	_, err = d.AppendPoints(ctx, SquadronPointsHistory{SquadronID: fair.ID, PointsChange: 20, ChangeType: "race_event", ModifiedBy: strong.ID})
	require.NoError(t, err)
	_, err = d.AppendPoints(ctx, SquadronPointsHistory{SquadronID: rough.ID, PointsChange: 20, ChangeType: "race_event", ModifiedBy: weak.ID})
	require.NoError(t, err)

	rows, err := d.FindRankings(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, top.ID, rows[0].SquadronID)
	assert.Equal(t, 50, rows[0].TotalPoints)

	// Tied totals fall back to the fair racing average.
	assert.Equal(t, fair.ID, rows[1].SquadronID)
	assert.Equal(t, rough.ID, rows[2].SquadronID)
}
