package domain

import "time"

// MaxSquadronMembers caps the roster while a squadron is active.
const MaxSquadronMembers = 4

// Points change types recorded in the ledger.
const (
	ChangeTypeRaceEvent        = "race_event"
	ChangeTypeManualAdjustment = "manual_adjustment"
	ChangeTypePenalty          = "penalty"
	ChangeTypeBonus            = "bonus"
	ChangeTypeRevert           = "revert"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusRevoked  = "revoked"
)

type Squadron struct {
	ID                uint             `json:"id"`
	Name              string           `json:"name"`
	CaptainID         uint             `json:"captain_id"`
	IsActive          bool             `json:"is_active"`
	FairRacingAverage float64          `json:"fair_racing_average"`
	TotalPoints       int              `json:"total_points"`
	Members           []SquadronMember `json:"members,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

type SquadronMember struct {
	UserID   uint      `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// SquadronPointsEntry is one append-only ledger line. The squadron's
// displayed total is the sum of PointsChange over its entries, never a
// directly mutated counter.
type SquadronPointsEntry struct {
	ID            uint      `json:"id"`
	SquadronID    uint      `json:"squadron_id"`
	RaceEventID   string    `json:"race_event_id,omitempty"`
	PointsChange  int       `json:"points_change"`
	PreviousTotal int       `json:"previous_total"`
	NewTotal      int       `json:"new_total"`
	ChangeType    string    `json:"change_type"`
	Reason        string    `json:"reason,omitempty"`
	ModifiedBy    uint      `json:"modified_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type SquadronInvite struct {
	ID         uint      `json:"id"`
	SquadronID uint      `json:"squadron_id"`
	InviterID  uint      `json:"inviter_id"`
	InviteeID  uint      `json:"invitee_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// SquadronRanking is one row in the venue-wide standings, totals summed
// from the ledger at read time.
type SquadronRanking struct {
	Rank              int     `json:"rank"`
	SquadronID        uint    `json:"squadron_id"`
	Name              string  `json:"name"`
	TotalPoints       int     `json:"total_points"`
	FairRacingAverage float64 `json:"fair_racing_average"`
}
