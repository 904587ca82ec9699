// internal/models/employer_profile.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanySize string

const (
	CompanySizeMicro  CompanySize = "1-10"
	CompanySizeSmall  CompanySize = "11-50"
	CompanySizeMedium CompanySize = "51-200"
	CompanySizeLarge  CompanySize = "200+"
)

type EmployerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	CompanyName string      `gorm:"type:varchar(150);not null" json:"company_name"`
	Industry    string      `gorm:"type:varchar(80)" json:"industry"`
	CompanySize CompanySize `gorm:"type:varchar(20)" json:"company_size"`
	Website     string      `gorm:"type:varchar(200)" json:"website"`
	Description string      `gorm:"type:text" json:"description"`
	LogoURL     string      `gorm:"type:text" json:"logo_url"`

	// legal data reviewed by admins before verification
	NPWP        string `gorm:"type:varchar(16)" json:"npwp"`
	DocumentURL string `gorm:"type:text" json:"document_url"`

	Address    string `gorm:"type:text" json:"address"`
	City       string `gorm:"type:varchar(120)" json:"city"`
	Province   string `gorm:"type:varchar(120)" json:"province"`
	PostalCode string `gorm:"type:varchar(10)" json:"postal_code"`

	ContactPhone string `gorm:"type:varchar(30)" json:"contact_phone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *EmployerProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
