package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModerationAction string

const (
	ModerationVerify  ModerationAction = "verify"
	ModerationReject  ModerationAction = "reject"
	ModerationBlock   ModerationAction = "block"
	ModerationUnblock ModerationAction = "unblock"
	ModerationReopen  ModerationAction = "reopen"
)

// Block-axis states recorded in FromState / ToState.
const (
	BlockStateUnblocked = "unblocked"
	BlockStateBlocked   = "blocked"
)

// ModerationEvent is one entry of an account's moderation history. Rows are
// only ever inserted.
type ModerationEvent struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID    uuid.UUID        `gorm:"type:uuid;index;uniqueIndex:idx_moderation_events_account_seq,priority:1;not null" json:"account_id"`
	Seq          int64            `gorm:"not null;uniqueIndex:idx_moderation_events_account_seq,priority:2" json:"seq"` // 1-based position in the account's history
	ActorAdminID uuid.UUID        `gorm:"type:uuid;index;not null" json:"actor_admin_id"`
	Action       ModerationAction `gorm:"type:varchar(20);not null" json:"action"`
	FromState    string           `gorm:"type:varchar(20);not null" json:"from_state"`
	ToState      string           `gorm:"type:varchar(20);not null" json:"to_state"`
	Reason       *string          `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt    time.Time        `gorm:"index" json:"created_at"`
}

func (e *ModerationEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
