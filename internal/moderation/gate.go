package moderation

import "github.com/pintukerja/pintukerja_be/internal/models"

// Action is the category of a request checked by the gate.
type Action string

const (
	ActionBrowse            Action = "browse"
	ActionPostJob           Action = "post_job"
	ActionSubmitApplication Action = "submit_application"
	ActionWrite             Action = "write"
)

// Outcome codes shared with the frontend.
const (
	CodeAccountBlocked       = "ACCOUNT_BLOCKED"
	CodeVerificationPending  = "VERIFICATION_PENDING"
	CodeVerificationRejected = "VERIFICATION_REJECTED"
)

// Snapshot is the part of an account the gate looks at.
type Snapshot struct {
	Role               models.Role
	VerificationStatus models.VerificationStatus
	RejectionReason    string
	IsBlocked          bool
	BlockReason        string
}

func SnapshotOf(u *models.User) Snapshot {
	s := Snapshot{
		Role:               u.Role,
		VerificationStatus: u.VerificationStatus,
		IsBlocked:          u.IsBlocked,
	}
	if u.RejectionReason != nil {
		s.RejectionReason = *u.RejectionReason
	}
	if u.BlockReason != nil {
		s.BlockReason = *u.BlockReason
	}
	return s
}

// Notice is a banner the client shows even when the request is allowed.
type Notice struct {
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// Decision is the gate result for one request.
type Decision struct {
	Allowed bool    `json:"allowed"`
	Code    string  `json:"code,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Notice  *Notice `json:"notice,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(code, reason string) Decision {
	return Decision{Code: code, Reason: reason, Notice: &Notice{Code: code, Reason: reason}}
}

// Decide evaluates the moderation state of an account against an action.
// Role based rules are checked elsewhere.
func Decide(s Snapshot, action Action) Decision {
	if s.Role == models.RoleAdmin {
		return allow()
	}
	if s.IsBlocked {
		return deny(CodeAccountBlocked, s.BlockReason)
	}
	// job seekers are never held back by verification
	if s.Role != models.RoleEmployer {
		return allow()
	}

	switch s.VerificationStatus {
	case models.VerificationVerified:
		return allow()
	case models.VerificationRejected:
		if action == ActionPostJob {
			return deny(CodeVerificationRejected, s.RejectionReason)
		}
		d := allow()
		d.Notice = &Notice{Code: CodeVerificationRejected, Reason: s.RejectionReason}
		return d
	default:
		if action == ActionPostJob {
			return deny(CodeVerificationPending, "")
		}
		d := allow()
		d.Notice = &Notice{Code: CodeVerificationPending}
		return d
	}
}
