package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Name     string `gorm:"not null"`
	Role     string `gorm:"not null;default:driver"` // "driver" or "admin"

	FairRacingScore int `gorm:"not null;default:0"`

	// Karting link. DriverName is authoritative only while LinkStatus is
	// "linked"; a partial unique index over LOWER(driver_name) enforces
	// one linked account per name (see InitTables).
	DriverName         *string
	PreviousDriverName *string
	LinkStatus         string `gorm:"not null;default:''"`
	LinkedAt           *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_users_email"`) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// FindLinkedByDriverName returns every account currently holding the
// given driver name as a confirmed link. The linking invariant means the
// result should have at most one element; more than one is a conflict
// the caller must surface.
func (d *UserDAO) FindLinkedByDriverName(ctx context.Context, driverName string) ([]User, error) {
	var users []User

	result := d.db.WithContext(ctx).
		Where("link_status = ? AND LOWER(driver_name) = LOWER(?)", "linked", driverName).
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// FindAllLinked returns every account with a confirmed link. Feeds the
// resolver's fuzzy-matching corpus.
func (d *UserDAO) FindAllLinked(ctx context.Context) ([]User, error) {
	var users []User

	result := d.db.WithContext(ctx).
		Where("link_status = ?", "linked").
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (d *UserDAO) UpdateFairRacingScore(ctx context.Context, id uint, score int) error {
	result := d.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("fair_racing_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
