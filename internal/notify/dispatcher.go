package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/realtime"
)

// Push is the websocket frame sent for every stored notification.
type Push struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
	Account      *AccountState        `json:"account,omitempty"`
}

// AccountState lets an open client refresh its moderation banner without a
// round trip.
type AccountState struct {
	VerificationStatus models.VerificationStatus `json:"verification_status"`
	RejectionReason    *string                   `json:"rejection_reason,omitempty"`
	IsBlocked          bool                      `json:"is_blocked"`
	BlockReason        *string                   `json:"block_reason,omitempty"`
}

// Dispatcher stores in-app notifications and pushes them to connected
// clients. With a redis client the push goes through pub/sub so every API
// instance can deliver it; without one it goes straight to the local hub.
// Failures are logged and never returned.
type Dispatcher struct {
	db  *gorm.DB
	hub *realtime.Hub
	rdb *redis.Client
	log *zap.Logger
}

func NewDispatcher(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *Dispatcher {
	return &Dispatcher{
		db:  db,
		hub: hub,
		rdb: rdb,
		log: logger.WithModule("notify"),
	}
}

// AccountModerated implements moderation.Notifier.
func (d *Dispatcher) AccountModerated(ctx context.Context, account *models.User, ev models.ModerationEvent) {
	n := moderationNotification(account.ID, ev)
	push := &Push{
		Type:         realtime.PushAccountModerated,
		Notification: n,
		Account: &AccountState{
			VerificationStatus: account.VerificationStatus,
			RejectionReason:    account.RejectionReason,
			IsBlocked:          account.IsBlocked,
			BlockReason:        account.BlockReason,
		},
	}
	published := d.deliver(ctx, push)
	// published pushes are dropped by the subscriber of every instance
	if account.IsBlocked && !published && d.hub != nil {
		d.hub.DisconnectUser(account.ID)
	}
}

// ApplicationCreated tells an employer a job seeker applied to their job.
func (d *Dispatcher) ApplicationCreated(ctx context.Context, employerID uuid.UUID, job *models.Job, applicant *models.User) {
	n := &models.Notification{
		UserID: employerID,
		Type:   models.NotificationApplicationCreated,
		Title:  "Lamaran baru",
		Body:   fmt.Sprintf("%s melamar posisi %s.", applicant.Name, job.Title),
	}
	d.deliver(ctx, &Push{Type: "notification", Notification: n})
}

// ApplicationStatusChanged tells a job seeker their application moved.
func (d *Dispatcher) ApplicationStatusChanged(ctx context.Context, app *models.Application, jobTitle string) {
	n := &models.Notification{
		UserID: app.JobSeekerID,
		Type:   models.NotificationApplicationStatus,
		Title:  "Status lamaran diperbarui",
		Body:   fmt.Sprintf("Lamaran Anda untuk %s sekarang berstatus %s.", jobTitle, applicationStatusLabel(app.Status)),
	}
	d.deliver(ctx, &Push{Type: "notification", Notification: n})
}

// deliver stores the notification and pushes it. It reports whether the push
// went out through redis.
func (d *Dispatcher) deliver(ctx context.Context, push *Push) bool {
	n := push.Notification
	if err := d.db.WithContext(ctx).Create(n).Error; err != nil {
		d.log.Error("store notification",
			zap.String("user_id", n.UserID.String()),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return false
	}

	payload, err := json.Marshal(push)
	if err != nil {
		d.log.Error("marshal push", zap.Error(err))
		return false
	}

	if d.rdb != nil {
		err := d.rdb.Publish(ctx, realtime.Channel(n.UserID), payload).Err()
		if err == nil {
			return true
		}
		d.log.Warn("redis publish failed, delivering locally",
			zap.String("user_id", n.UserID.String()),
			zap.Error(err))
	}
	if d.hub != nil {
		d.hub.SendRaw(n.UserID, payload)
	}
	return false
}

func moderationNotification(userID uuid.UUID, ev models.ModerationEvent) *models.Notification {
	n := &models.Notification{UserID: userID}
	reason := ""
	if ev.Reason != nil {
		reason = *ev.Reason
	}

	switch ev.Action {
	case models.ModerationVerify:
		n.Type = models.NotificationAccountVerified
		n.Title = "Akun terverifikasi"
		n.Body = "Akun Anda telah diverifikasi. Anda sekarang dapat memasang lowongan."
	case models.ModerationReject:
		n.Type = models.NotificationAccountRejected
		n.Title = "Verifikasi ditolak"
		n.Body = "Verifikasi akun Anda ditolak. Alasan: " + reason
	case models.ModerationBlock:
		n.Type = models.NotificationAccountBlocked
		n.Title = "Akun diblokir"
		n.Body = "Akun Anda diblokir oleh admin. Alasan: " + reason
	case models.ModerationUnblock:
		n.Type = models.NotificationAccountUnblocked
		n.Title = "Blokir dibuka"
		n.Body = "Blokir pada akun Anda telah dibuka."
	default:
		n.Type = models.NotificationAccountReopened
		n.Title = "Verifikasi ditinjau ulang"
		n.Body = "Akun Anda kembali dalam antrean verifikasi."
	}
	return n
}

func applicationStatusLabel(s models.ApplicationStatus) string {
	switch s {
	case models.ApplicationReviewed:
		return "sedang ditinjau"
	case models.ApplicationAccepted:
		return "diterima"
	case models.ApplicationRejected:
		return "ditolak"
	}
	return "terkirim"
}
