package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
)

// Notifier is told about every committed transition. Implementations must
// not block the caller for long and never fail it.
type Notifier interface {
	AccountModerated(ctx context.Context, account *models.User, event models.ModerationEvent)
}

type Service struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:  db,
		now: time.Now,
		log: logger.WithModule("moderation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Verify(ctx context.Context, accountID, actorID uuid.UUID) (*models.User, error) {
	return s.apply(ctx, accountID, actorID, Command{Action: models.ModerationVerify})
}

func (s *Service) Reject(ctx context.Context, accountID, actorID uuid.UUID, reason string) (*models.User, error) {
	return s.apply(ctx, accountID, actorID, Command{Action: models.ModerationReject, Reason: reason})
}

func (s *Service) Block(ctx context.Context, accountID, actorID uuid.UUID, reason string) (*models.User, error) {
	return s.apply(ctx, accountID, actorID, Command{Action: models.ModerationBlock, Reason: reason})
}

func (s *Service) Unblock(ctx context.Context, accountID, actorID uuid.UUID, reason string) (*models.User, error) {
	return s.apply(ctx, accountID, actorID, Command{Action: models.ModerationUnblock, Reason: reason})
}

// Reopen puts a verified or rejected account back into the review queue.
func (s *Service) Reopen(ctx context.Context, accountID, actorID uuid.UUID, reason string) (*models.User, error) {
	return s.apply(ctx, accountID, actorID, Command{Action: models.ModerationReopen, Reason: reason})
}

func (s *Service) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	var actor models.User
	err := s.db.WithContext(ctx).Select("id", "role").First(&actor, "id = ?", actorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return forbiddenErr("actor is not an admin")
	}
	if err != nil {
		return fmt.Errorf("load actor: %w", err)
	}
	if actor.Role != models.RoleAdmin {
		return forbiddenErr("actor is not an admin")
	}
	return nil
}

func (s *Service) apply(ctx context.Context, accountID, actorID uuid.UUID, cmd Command) (*models.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	var (
		acc models.User
		ev  models.ModerationEvent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acc, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("account not found")
			}
			return fmt.Errorf("load account: %w", err)
		}

		prevStatus, prevBlocked := acc.VerificationStatus, acc.IsBlocked

		var err error
		ev, err = Apply(&acc, actorID, cmd, s.now())
		if err != nil {
			return err
		}

		// guard on the previous values so a write racing past the row lock
		// cannot be overwritten silently
		res := tx.Model(&models.User{}).
			Where("id = ? AND verification_status = ? AND is_blocked = ?", acc.ID, prevStatus, prevBlocked).
			Updates(map[string]interface{}{
				"verification_status": acc.VerificationStatus,
				"rejection_reason":    acc.RejectionReason,
				"is_blocked":          acc.IsBlocked,
				"block_reason":        acc.BlockReason,
				"updated_at":          ev.CreatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("update account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidStateErr("account was modified concurrently")
		}

		var last int64
		if err := tx.Model(&models.ModerationEvent{}).
			Where("account_id = ?", acc.ID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("load history position: %w", err)
		}
		ev.Seq = last + 1

		if err := tx.Create(&ev).Error; err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	acc.UpdatedAt = ev.CreatedAt

	s.log.Info("account moderated",
		zap.String("account_id", acc.ID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("action", string(ev.Action)),
		zap.String("from", ev.FromState),
		zap.String("to", ev.ToState),
	)

	if s.notifier != nil {
		s.notifier.AccountModerated(context.WithoutCancel(ctx), &acc, ev)
	}
	return &acc, nil
}

// Get reads the current account record. It is called on every gated request.
func (s *Service) Get(ctx context.Context, accountID uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErr("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &u, nil
}

// Detail is Get with the employer profile attached, for admin review.
func (s *Service) Detail(ctx context.Context, accountID uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("EmployerProfile").First(&u, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErr("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &u, nil
}

// History returns the moderation log of an account in the order the
// transitions were committed.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]models.ModerationEvent, error) {
	if _, err := s.Get(ctx, accountID); err != nil {
		return nil, err
	}

	var events []models.ModerationEvent
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("seq ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return events, nil
}

type ListFilter struct {
	Role    models.Role
	Status  models.VerificationStatus
	Blocked *bool
	Query   string // matches name or email
	Page    int
	Limit   int
}

// List returns moderation targets (admins excluded) for the admin console.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.User, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).Where("role <> ?", models.RoleAdmin)
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("verification_status = ?", f.Status)
	}
	if f.Blocked != nil {
		q = q.Where("is_blocked = ?", *f.Blocked)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	var users []models.User
	if err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return users, total, nil
}
