package models

import "time"

const (
	ApprovalRoleOwner        = "owner"
	ApprovalRoleCollaborator = "collaborator"
)

// Approval is a recorded sign-off on the current content of a podcast.
// Approvals are cleared whenever content the sign-off was based on changes.
type Approval struct {
	PodcastID  string    `db:"podcast_id"`
	UserID     string    `db:"user_id"`
	Role       string    `db:"role"`
	ApprovedAt time.Time `db:"approved_at"`
}
