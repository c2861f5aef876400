package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrSquadronNotFound         = errors.New("squadron not found")
	ErrSquadronNameExists       = errors.New("squadron name already taken")
	ErrSquadronInactive         = errors.New("squadron is inactive")
	ErrSquadronFull             = errors.New("squadron is full")
	ErrAlreadyInSquadron        = errors.New("user already belongs to a squadron")
	ErrNotMember                = errors.New("user is not a member of this squadron")
	ErrNotCaptain               = errors.New("user is not the squadron captain")
	ErrCaptainMustTransferFirst = errors.New("captain must transfer captaincy before leaving")
	ErrInviteNotFound           = errors.New("squadron invite not found")
	ErrInviteNotPending         = errors.New("squadron invite is not pending")
	ErrDuplicateInvite          = errors.New("user already has a pending invite to this squadron")
)

type Squadron struct {
	ID uint `gorm:"primaryKey"`

	Name      string `gorm:"unique;not null"`
	CaptainID uint   `gorm:"not null"`
	IsActive  bool   `gorm:"not null;default:true"`

	// FairRacingAverage and TotalPoints are display caches. The averages
	// follow membership changes; the points total follows the ledger and
	// is never written outside AppendPoints.
	FairRacingAverage float64 `gorm:"not null;default:0"`
	TotalPoints       int     `gorm:"not null;default:0"`

	// Version only exists to serialize writers on the same squadron: every
	// transactional operation bumps it first, taking the row lock.
	Version uint `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type SquadronMember struct {
	ID         uint `gorm:"primaryKey"`
	SquadronID uint `gorm:"not null;index"`
	UserID     uint `gorm:"uniqueIndex;not null"` // one squadron per account

	JoinedAt time.Time `gorm:"not null"`
}

type SquadronPointsHistory struct {
	ID uint `gorm:"primaryKey"`

	SquadronID    uint `gorm:"not null;index"`
	RaceEventID   *string
	PointsChange  int    `gorm:"not null"`
	PreviousTotal int    `gorm:"not null"`
	NewTotal      int    `gorm:"not null"`
	ChangeType    string `gorm:"not null"`
	Reason        string
	ModifiedBy    uint `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (SquadronPointsHistory) TableName() string {
	return "squadron_points_history"
}

type SquadronInvite struct {
	ID uint `gorm:"primaryKey"`

	SquadronID uint   `gorm:"not null;index"`
	InviterID  uint   `gorm:"not null"`
	InviteeID  uint   `gorm:"not null;index"`
	Status     string `gorm:"not null;default:pending"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// MemberRow is a roster line joined with the member's account.
type MemberRow struct {
	UserID   uint
	Name     string
	JoinedAt time.Time
}

// RankingRow is one squadron with its ledger-summed total.
type RankingRow struct {
	SquadronID        uint
	Name              string
	FairRacingAverage float64
	TotalPoints       int
	CreatedAt         time.Time
}

type SquadronDAO struct {
	db *gorm.DB
}

func NewSquadronDAO(db *gorm.DB) *SquadronDAO {
	return &SquadronDAO{
		db: db,
	}
}

// lockSquadron serializes concurrent writers on one squadron by bumping
// its version inside the caller's transaction. Operations on different
// squadrons do not contend.
func lockSquadron(tx *gorm.DB, id uint) error {
	result := tx.Model(&Squadron{}).
		Where("id = ?", id).
		Update("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSquadronNotFound
	}

	return nil
}

func refreshFairRacingAverage(tx *gorm.DB, squadronID uint) error {
	var avg float64
	err := tx.Table("squadron_members").
		Joins("JOIN users ON users.id = squadron_members.user_id").
		Where("squadron_members.squadron_id = ?", squadronID).
		Select("COALESCE(AVG(users.fair_racing_score), 0)").
		Scan(&avg).Error
	if err != nil {
		return err
	}

	return tx.Model(&Squadron{}).
		Where("id = ?", squadronID).
		Update("fair_racing_average", avg).Error
}

func (d *SquadronDAO) Insert(ctx context.Context, squadron Squadron, captainID uint) (Squadron, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&SquadronMember{}).
			Where("user_id = ?", captainID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyInSquadron
		}

		if err := tx.Model(&Squadron{}).
			Where("name = ?", squadron.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSquadronNameExists
		}

		squadron.CaptainID = captainID
		squadron.IsActive = true
		if err := tx.Create(&squadron).Error; err != nil {
			return err
		}

		member := SquadronMember{
			SquadronID: squadron.ID,
			UserID:     captainID,
			JoinedAt:   time.Now().UTC(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		return refreshFairRacingAverage(tx, squadron.ID)
	})
	if err != nil {
		return Squadron{}, err
	}

	return squadron, nil
}

func (d *SquadronDAO) FindByID(ctx context.Context, id uint) (Squadron, error) {
	var squadron Squadron

	result := d.db.WithContext(ctx).First(&squadron, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Squadron{}, ErrSquadronNotFound
		}

		return Squadron{}, result.Error
	}

	return squadron, nil
}

func (d *SquadronDAO) FindMembers(ctx context.Context, squadronID uint) ([]MemberRow, error) {
	var members []MemberRow

	result := d.db.WithContext(ctx).
		Table("squadron_members").
		Select("squadron_members.user_id, users.name, squadron_members.joined_at").
		Joins("JOIN users ON users.id = squadron_members.user_id").
		Where("squadron_members.squadron_id = ?", squadronID).
		Order("squadron_members.joined_at ASC").
		Scan(&members)
	if result.Error != nil {
		return nil, result.Error
	}

	return members, nil
}

func (d *SquadronDAO) FindByMemberID(ctx context.Context, userID uint) (Squadron, error) {
	var member SquadronMember

	result := d.db.WithContext(ctx).First(&member, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Squadron{}, ErrSquadronNotFound
		}

		return Squadron{}, result.Error
	}

	return d.FindByID(ctx, member.SquadronID)
}

func (d *SquadronDAO) addMember(tx *gorm.DB, squadronID, userID uint) error {
	var squadron Squadron
	if err := tx.First(&squadron, squadronID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadronNotFound
		}

		return err
	}
	if !squadron.IsActive {
		return ErrSquadronInactive
	}

	var count int64
	if err := tx.Model(&SquadronMember{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyInSquadron
	}

	if err := tx.Model(&SquadronMember{}).
		Where("squadron_id = ?", squadronID).
		Count(&count).Error; err != nil {
		return err
	}
	if count >= 4 {
		return ErrSquadronFull
	}

	member := SquadronMember{
		SquadronID: squadronID,
		UserID:     userID,
		JoinedAt:   time.Now().UTC(),
	}
	if err := tx.Create(&member).Error; err != nil {
		return err
	}

	return refreshFairRacingAverage(tx, squadronID)
}

func (d *SquadronDAO) AddMember(ctx context.Context, squadronID, userID uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSquadron(tx, squadronID); err != nil {
			return err
		}

		return d.addMember(tx, squadronID, userID)
	})
}

// removeMember deletes one roster row and maintains the deactivation
// invariant: a squadron never sits at zero members while active.
func (d *SquadronDAO) removeMember(tx *gorm.DB, squadronID, userID uint) error {
	var squadron Squadron
	if err := tx.First(&squadron, squadronID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadronNotFound
		}

		return err
	}

	var member SquadronMember
	if err := tx.First(&member, "squadron_id = ? AND user_id = ?", squadronID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}

		return err
	}

	var count int64
	if err := tx.Model(&SquadronMember{}).
		Where("squadron_id = ?", squadronID).
		Count(&count).Error; err != nil {
		return err
	}

	if userID == squadron.CaptainID && count > 1 {
		return ErrCaptainMustTransferFirst
	}

	if err := tx.Delete(&member).Error; err != nil {
		return err
	}

	if count-1 == 0 {
		// Last member out: deactivate, never delete. The points ledger and
		// history stay queryable.
		return tx.Model(&Squadron{}).
			Where("id = ?", squadronID).
			Updates(map[string]interface{}{
				"is_active":           false,
				"fair_racing_average": float64(0),
			}).Error
	}

	return refreshFairRacingAverage(tx, squadronID)
}

// RemoveMember removes userID from the squadron. removedBy must be the
// member themselves (leave) or the captain (kick).
func (d *SquadronDAO) RemoveMember(ctx context.Context, squadronID, userID, removedBy uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSquadron(tx, squadronID); err != nil {
			return err
		}

		if removedBy != userID {
			var squadron Squadron
			if err := tx.First(&squadron, squadronID).Error; err != nil {
				return err
			}
			if squadron.CaptainID != removedBy {
				return ErrNotCaptain
			}
		}

		return d.removeMember(tx, squadronID, userID)
	})
}

func (d *SquadronDAO) TransferCaptaincy(ctx context.Context, squadronID, captainID, newCaptainID uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSquadron(tx, squadronID); err != nil {
			return err
		}

		var squadron Squadron
		if err := tx.First(&squadron, squadronID).Error; err != nil {
			return err
		}
		if squadron.CaptainID != captainID {
			return ErrNotCaptain
		}

		var count int64
		if err := tx.Model(&SquadronMember{}).
			Where("squadron_id = ? AND user_id = ?", squadronID, newCaptainID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotMember
		}

		return tx.Model(&Squadron{}).
			Where("id = ?", squadronID).
			Update("captain_id", newCaptainID).Error
	})
}

func (d *SquadronDAO) InsertInvite(ctx context.Context, invite SquadronInvite) (SquadronInvite, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var squadron Squadron
		if err := tx.First(&squadron, invite.SquadronID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSquadronNotFound
			}

			return err
		}
		if !squadron.IsActive {
			return ErrSquadronInactive
		}
		if squadron.CaptainID != invite.InviterID {
			return ErrNotCaptain
		}

		var count int64
		if err := tx.Model(&SquadronMember{}).
			Where("user_id = ?", invite.InviteeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyInSquadron
		}

		if err := tx.Model(&SquadronInvite{}).
			Where("squadron_id = ? AND invitee_id = ? AND status = ?",
				invite.SquadronID, invite.InviteeID, "pending").
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateInvite
		}

		invite.Status = "pending"

		return tx.Create(&invite).Error
	})
	if err != nil {
		return SquadronInvite{}, err
	}

	return invite, nil
}

func (d *SquadronDAO) FindInvitesForUser(ctx context.Context, userID uint) ([]SquadronInvite, error) {
	var invites []SquadronInvite

	result := d.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", userID, "pending").
		Order("created_at DESC").
		Find(&invites)
	if result.Error != nil {
		return nil, result.Error
	}

	return invites, nil
}

// AcceptInvite joins the invitee to the squadron, re-validating the
// capacity and single-membership invariants inside the same transaction
// that flips the invite.
func (d *SquadronDAO) AcceptInvite(ctx context.Context, inviteID, userID uint) (SquadronInvite, error) {
	var invite SquadronInvite

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invite, "id = ? AND invitee_id = ?", inviteID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteNotFound
			}

			return err
		}
		if invite.Status != "pending" {
			return ErrInviteNotPending
		}

		if err := lockSquadron(tx, invite.SquadronID); err != nil {
			return err
		}

		if err := d.addMember(tx, invite.SquadronID, userID); err != nil {
			return err
		}

		invite.Status = "accepted"

		return tx.Save(&invite).Error
	})
	if err != nil {
		return SquadronInvite{}, err
	}

	return invite, nil
}

func (d *SquadronDAO) DeclineInvite(ctx context.Context, inviteID, userID uint) (SquadronInvite, error) {
	var invite SquadronInvite

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invite, "id = ? AND invitee_id = ?", inviteID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteNotFound
			}

			return err
		}
		if invite.Status != "pending" {
			return ErrInviteNotPending
		}

		invite.Status = "declined"

		return tx.Save(&invite).Error
	})
	if err != nil {
		return SquadronInvite{}, err
	}

	return invite, nil
}

// AppendPoints writes one ledger entry. The previous total is read as
// the ledger sum inside the transaction after taking the squadron's
// write lock, so concurrent deltas on one squadron chain consistently.
// The squadron's stored total is refreshed as a display cache only.
func (d *SquadronDAO) AppendPoints(ctx context.Context, entry SquadronPointsHistory) (SquadronPointsHistory, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSquadron(tx, entry.SquadronID); err != nil {
			return err
		}

		var previous int
		if err := tx.Model(&SquadronPointsHistory{}).
			Where("squadron_id = ?", entry.SquadronID).
			Select("COALESCE(SUM(points_change), 0)").
			Scan(&previous).Error; err != nil {
			return err
		}

		entry.PreviousTotal = previous
		entry.NewTotal = previous + entry.PointsChange

		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return tx.Model(&Squadron{}).
			Where("id = ?", entry.SquadronID).
			Update("total_points", entry.NewTotal).Error
	})
	if err != nil {
		return SquadronPointsHistory{}, err
	}

	return entry, nil
}

// SumPoints is the authoritative total: the ledger sum, never the
// cached column.
func (d *SquadronDAO) SumPoints(ctx context.Context, squadronID uint) (int, error) {
	if _, err := d.FindByID(ctx, squadronID); err != nil {
		return 0, err
	}

	var total int
	result := d.db.WithContext(ctx).
		Model(&SquadronPointsHistory{}).
		Where("squadron_id = ?", squadronID).
		Select("COALESCE(SUM(points_change), 0)").
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return total, nil
}

func (d *SquadronDAO) FindPointsHistory(ctx context.Context, squadronID uint) ([]SquadronPointsHistory, error) {
	if _, err := d.FindByID(ctx, squadronID); err != nil {
		return nil, err
	}

	var entries []SquadronPointsHistory
	result := d.db.WithContext(ctx).
		Where("squadron_id = ?", squadronID).
		Order("created_at ASC, id ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// FindRankings sums every squadron's ledger and orders descending by
// total, tie-broken by fair racing average (desc) then creation time
// (asc) so the ordering is deterministic.
func (d *SquadronDAO) FindRankings(ctx context.Context) ([]RankingRow, error) {
	var rows []RankingRow

	result := d.db.WithContext(ctx).
		Table("squadrons").
		Select("squadrons.id AS squadron_id, squadrons.name, squadrons.fair_racing_average, squadrons.created_at, " +
			"COALESCE(SUM(squadron_points_history.points_change), 0) AS total_points").
		Joins("LEFT JOIN squadron_points_history ON squadron_points_history.squadron_id = squadrons.id").
		Group("squadrons.id, squadrons.name, squadrons.fair_racing_average, squadrons.created_at").
		Order("total_points DESC, squadrons.fair_racing_average DESC, squadrons.created_at ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}
