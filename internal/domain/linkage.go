package domain

import "time"

const (
	LinkageStatusPending   = "pending"
	LinkageStatusApproved  = "approved"
	LinkageStatusRejected  = "rejected"
	LinkageStatusCancelled = "cancelled"
)

// LinkageRequest is a user's moderated claim on a driver name. Approval
// by an admin is the only path that writes a KartingLink.
type LinkageRequest struct {
	ID                 uint       `json:"id"`
	WebUserID          uint       `json:"web_user_id"`
	SearchedName       string     `json:"searched_name"`
	SelectedDriverName string     `json:"selected_driver_name"`
	SelectedSessionID  string     `json:"selected_session_id"`
	Status             string     `json:"status"`
	RejectReason       string     `json:"reject_reason,omitempty"`
	ReviewedBy         *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Match confidence levels, ordered from certain to advisory.
const (
	ConfidenceConfirmed = "confirmed"
	ConfidenceLikely    = "likely"
	ConfidencePossible  = "possible"
	ConfidenceConflict  = "conflict"
)

// MatchCandidate is one account the resolver proposes for a driver name.
// Nothing is applied automatically; candidates go to a human.
type MatchCandidate struct {
	User       User   `json:"user"`
	Confidence string `json:"confidence"`
	Evidence   string `json:"evidence"`
}
