package domain

import "time"

const (
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// Karting link statuses. A driver name maps to at most one account
// with status "linked" at any time.
const (
	LinkStatusNone               = ""
	LinkStatusPendingFirstRace   = "pending_first_race"
	LinkStatusLinked             = "linked"
	LinkStatusVerificationFailed = "verification_failed"
)

type User struct {
	ID              uint        `json:"id"`
	Email           string      `json:"email"`
	Password        string      `json:"-"`
	Name            string      `json:"name"`
	Role            string      `json:"role"`
	FairRacingScore int         `json:"fair_racing_score"`
	KartingLink     KartingLink `json:"karting_link"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// KartingLink ties an account to the free-text driver name the timing
// system records. DriverName is authoritative only while Status is "linked".
type KartingLink struct {
	DriverName         string     `json:"driver_name,omitempty"`
	PreviousDriverName string     `json:"previous_driver_name,omitempty"`
	Status             string     `json:"status"`
	LinkedAt           *time.Time `json:"linked_at,omitempty"`
}

func (u User) IsLinked() bool {
	return u.KartingLink.Status == LinkStatusLinked && u.KartingLink.DriverName != ""
}
