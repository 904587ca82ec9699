package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleJobSeeker || r == RoleEmployer || r == RoleAdmin
}

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// internal/models/user.go
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone *string   `gorm:"type:varchar(30);uniqueIndex" json:"phone,omitempty"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	// moderation: verification and blocking are independent axes
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;index;default:'pending'" json:"verification_status"`
	RejectionReason    *string            `gorm:"type:text" json:"rejection_reason,omitempty"`
	IsBlocked          bool               `gorm:"not null;default:false;index" json:"is_blocked"`
	BlockReason        *string            `gorm:"type:text" json:"block_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EmployerProfile *EmployerProfile `gorm:"foreignKey:UserID;references:ID" json:"employer_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// InitialVerificationStatus is the status a freshly registered account starts in.
// Job seekers are not reviewed, so they start verified.
func InitialVerificationStatus(role Role) VerificationStatus {
	if role == RoleEmployer {
		return VerificationPending
	}
	return VerificationVerified
}
