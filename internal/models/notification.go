package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAccountVerified    NotificationType = "account_verified"
	NotificationAccountRejected    NotificationType = "account_rejected"
	NotificationAccountBlocked     NotificationType = "account_blocked"
	NotificationAccountUnblocked   NotificationType = "account_unblocked"
	NotificationAccountReopened    NotificationType = "account_reopened"
	NotificationApplicationCreated NotificationType = "application_created"
	NotificationApplicationStatus  NotificationType = "application_status"
)

type Notification struct {
	ID     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Type   NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title  string           `gorm:"type:varchar(150);not null" json:"title"`
	Body   string           `gorm:"type:text" json:"body"`
	IsRead bool             `gorm:"not null;default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
