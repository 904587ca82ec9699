package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)

type Job struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployerID uuid.UUID `gorm:"type:uuid;not null;index" json:"employer_id"`

	Title          string         `gorm:"type:varchar(150);not null" json:"title"`
	Category       string         `gorm:"type:varchar(80);index" json:"category"` // IT, Keuangan, Marketing, dll
	Location       string         `gorm:"type:varchar(120)" json:"location"`
	EmploymentType EmploymentType `gorm:"type:varchar(20)" json:"employment_type"`
	SalaryMin      int64          `json:"salary_min"`
	SalaryMax      int64          `json:"salary_max"`
	Description    string         `gorm:"type:text" json:"description"`

	// list of requirement strings
	Requirements datatypes.JSON `json:"requirements"`

	Status JobStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Employer *User `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
}
