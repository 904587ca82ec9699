// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted" // Lamaran terkirim
	ApplicationReviewed  ApplicationStatus = "reviewed"  // Sedang ditinjau
	ApplicationAccepted  ApplicationStatus = "accepted"  // Diterima
	ApplicationRejected  ApplicationStatus = "rejected"  // Ditolak
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationSubmitted, ApplicationReviewed, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

type Application struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID       uint      `gorm:"not null;uniqueIndex:idx_application_job_seeker" json:"job_id"`
	JobSeekerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_seeker;index" json:"job_seeker_id"`

	CoverLetter string `gorm:"type:text" json:"cover_letter"`
	ResumeURL   string `gorm:"type:text" json:"resume_url"`

	Status ApplicationStatus `gorm:"type:varchar(20);default:'submitted'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Job       *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	JobSeeker *User `gorm:"foreignKey:JobSeekerID" json:"job_seeker,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
