package moderation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pintukerja/pintukerja_be/internal/models"
)

// MaxReasonLength caps reasons stored on accounts and history entries.
const MaxReasonLength = 500

// Command is one admin moderation request.
type Command struct {
	Action models.ModerationAction
	Reason string
}

// requiresReason reports whether the action refuses a blank reason.
func requiresReason(a models.ModerationAction) bool {
	return a == models.ModerationReject || a == models.ModerationBlock
}

func normalizeReason(action models.ModerationAction, raw string) (*string, error) {
	reason := strings.TrimSpace(raw)
	if reason == "" {
		if requiresReason(action) {
			return nil, validationErr("reason is required")
		}
		return nil, nil
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return nil, validationErr(fmt.Sprintf("reason must be at most %d characters", MaxReasonLength))
	}
	return &reason, nil
}

func blockState(blocked bool) string {
	if blocked {
		return models.BlockStateBlocked
	}
	return models.BlockStateUnblocked
}

// Apply performs cmd on acc in memory and returns the history entry for it.
// acc is left untouched when an error is returned.
func Apply(acc *models.User, actorID uuid.UUID, cmd Command, now time.Time) (models.ModerationEvent, error) {
	if acc.Role == models.RoleAdmin {
		return models.ModerationEvent{}, invalidStateErr("admin accounts cannot be moderated")
	}

	reason, err := normalizeReason(cmd.Action, cmd.Reason)
	if err != nil {
		return models.ModerationEvent{}, err
	}

	ev := models.ModerationEvent{
		AccountID:    acc.ID,
		ActorAdminID: actorID,
		Action:       cmd.Action,
		Reason:       reason,
		CreatedAt:    now,
	}

	switch cmd.Action {
	case models.ModerationVerify:
		if acc.VerificationStatus == models.VerificationVerified {
			return models.ModerationEvent{}, invalidStateErr("account is already verified")
		}
		ev.FromState, ev.ToState = string(acc.VerificationStatus), string(models.VerificationVerified)
		acc.VerificationStatus = models.VerificationVerified
		acc.RejectionReason = nil

	case models.ModerationReject:
		if acc.VerificationStatus == models.VerificationRejected {
			return models.ModerationEvent{}, invalidStateErr("account is already rejected")
		}
		ev.FromState, ev.ToState = string(acc.VerificationStatus), string(models.VerificationRejected)
		acc.VerificationStatus = models.VerificationRejected
		acc.RejectionReason = copyString(reason)

	case models.ModerationReopen:
		if acc.VerificationStatus == models.VerificationPending {
			return models.ModerationEvent{}, invalidStateErr("account is already pending review")
		}
		ev.FromState, ev.ToState = string(acc.VerificationStatus), string(models.VerificationPending)
		acc.VerificationStatus = models.VerificationPending
		acc.RejectionReason = nil

	case models.ModerationBlock:
		if acc.IsBlocked {
			return models.ModerationEvent{}, invalidStateErr("account is already blocked")
		}
		ev.FromState, ev.ToState = blockState(false), blockState(true)
		acc.IsBlocked = true
		acc.BlockReason = copyString(reason)

	case models.ModerationUnblock:
		if !acc.IsBlocked {
			return models.ModerationEvent{}, invalidStateErr("account is not blocked")
		}
		ev.FromState, ev.ToState = blockState(true), blockState(false)
		acc.IsBlocked = false
		acc.BlockReason = nil

	default:
		return models.ModerationEvent{}, validationErr(fmt.Sprintf("unknown action %q", cmd.Action))
	}

	return ev, nil
}

// CheckInvariants reports a broken reason/state pairing on acc.
func CheckInvariants(acc *models.User) error {
	if (acc.RejectionReason != nil) != (acc.VerificationStatus == models.VerificationRejected) {
		return fmt.Errorf("rejection reason set=%t with status %s", acc.RejectionReason != nil, acc.VerificationStatus)
	}
	if (acc.BlockReason != nil) != acc.IsBlocked {
		return fmt.Errorf("block reason set=%t with is_blocked=%t", acc.BlockReason != nil, acc.IsBlocked)
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
