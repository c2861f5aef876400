package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrRequestNotFound         = errors.New("linkage request not found")
	ErrRequestNotPending       = errors.New("linkage request is not pending")
	ErrDuplicatePendingRequest = errors.New("user already has a pending linkage request")
	ErrConflictingLink         = errors.New("driver name is already linked to another account")
)

// LinkageRequest is a user's claim on a driver name, waiting for an
// admin decision. One pending request per user, enforced by a partial
// unique index (see InitTables) on top of the in-transaction check.
type LinkageRequest struct {
	ID uint `gorm:"primaryKey"`

	WebUserID          uint   `gorm:"not null;index"`
	SearchedName       string `gorm:"not null"`
	SelectedDriverName string `gorm:"not null"`
	SelectedSessionID  string `gorm:"not null"`

	Status       string `gorm:"not null;default:pending;index"`
	RejectReason string
	ReviewedBy   *uint
	ReviewedAt   *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type LinkageDAO struct {
	db *gorm.DB
}

func NewLinkageDAO(db *gorm.DB) *LinkageDAO {
	return &LinkageDAO{
		db: db,
	}
}

func (d *LinkageDAO) Insert(ctx context.Context, req LinkageRequest) (LinkageRequest, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&LinkageRequest{}).
			Where("web_user_id = ? AND status = ?", req.WebUserID, "pending").
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicatePendingRequest
		}

		req.Status = "pending"

		return tx.Create(&req).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return LinkageRequest{}, ErrDuplicatePendingRequest
		}

		return LinkageRequest{}, err
	}

	return req, nil
}

func (d *LinkageDAO) FindByID(ctx context.Context, id uint) (LinkageRequest, error) {
	var req LinkageRequest

	result := d.db.WithContext(ctx).First(&req, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LinkageRequest{}, ErrRequestNotFound
		}

		return LinkageRequest{}, result.Error
	}

	return req, nil
}

func (d *LinkageDAO) FindByUserID(ctx context.Context, userID uint) ([]LinkageRequest, error) {
	var reqs []LinkageRequest

	result := d.db.WithContext(ctx).
		Where("web_user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs)
	if result.Error != nil {
		return nil, result.Error
	}

	return reqs, nil
}

func (d *LinkageDAO) FindPending(ctx context.Context) ([]LinkageRequest, error) {
	var reqs []LinkageRequest

	result := d.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Find(&reqs)
	if result.Error != nil {
		return nil, result.Error
	}

	return reqs, nil
}

// Cancel moves the caller's own pending request to "cancelled".
func (d *LinkageDAO) Cancel(ctx context.Context, id, userID uint) (LinkageRequest, error) {
	var req LinkageRequest

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ? AND web_user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}

			return err
		}
		if req.Status != "pending" {
			return ErrRequestNotPending
		}

		req.Status = "cancelled"

		return tx.Save(&req).Error
	})
	if err != nil {
		return LinkageRequest{}, err
	}

	return req, nil
}

// Approve is the single choke point that writes an authoritative
// karting link. Inside one transaction it re-checks the request is
// still pending and that no other account holds the driver name as
// linked, then updates request, account and statistics state together.
// The partial unique index on users backstops the conflict check under
// concurrent approvals.
func (d *LinkageDAO) Approve(ctx context.Context, id, adminID uint) (LinkageRequest, error) {
	var req LinkageRequest

	now := time.Now().UTC()
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}

			return err
		}
		if req.Status != "pending" {
			return ErrRequestNotPending
		}

		var holders []User
		if err := tx.
			Where("link_status = ? AND LOWER(driver_name) = LOWER(?) AND id <> ?",
				"linked", req.SelectedDriverName, req.WebUserID).
			Find(&holders).Error; err != nil {
			return err
		}
		if len(holders) > 0 {
			return fmt.Errorf("driver name %q is held by account %v: %w",
				req.SelectedDriverName, holders[0].ID, ErrConflictingLink)
		}

		var user User
		if err := tx.First(&user, req.WebUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}

			return err
		}

		// Re-linking keeps the old name around as a historical variant
		// for the resolver's fuzzy corpus.
		if user.DriverName != nil && *user.DriverName != req.SelectedDriverName {
			previous := *user.DriverName
			user.PreviousDriverName = &previous
		}
		selected := req.SelectedDriverName
		user.DriverName = &selected
		user.LinkStatus = "linked"
		user.LinkedAt = &now

		if err := tx.Save(&user).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return ErrConflictingLink
			}

			return err
		}

		req.Status = "approved"
		req.ReviewedBy = &adminID
		req.ReviewedAt = &now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}

		// Statistics for this account are no longer servable until the
		// aggregator reruns; the service recomputes right after commit.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"state": "stale"}),
		}).Create(&UserStatistics{UserID: req.WebUserID, State: "stale"}).Error
	})
	if err != nil {
		return LinkageRequest{}, err
	}

	return req, nil
}

func (d *LinkageDAO) Reject(ctx context.Context, id, adminID uint, reason string) (LinkageRequest, error) {
	var req LinkageRequest

	now := time.Now().UTC()
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}

			return err
		}
		if req.Status != "pending" {
			return ErrRequestNotPending
		}

		req.Status = "rejected"
		req.RejectReason = reason
		req.ReviewedBy = &adminID
		req.ReviewedAt = &now

		return tx.Save(&req).Error
	})
	if err != nil {
		return LinkageRequest{}, err
	}

	return req, nil
}
