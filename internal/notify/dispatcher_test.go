package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pintukerja/pintukerja_be/internal/db/testutil"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/realtime"
)

func TestAccountModeratedStoresAndPushes(t *testing.T) {
	gdb := testutil.MustOpenTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	user := &models.User{ID: uuid.New(), Role: models.RoleEmployer, VerificationStatus: models.VerificationVerified}
	client := realtime.NewClient(user.ID, nil)
	hub.RegisterClient(client)
	require.Eventually(t, func() bool { return hub.Connected(user.ID) == 1 }, time.Second, 5*time.Millisecond)

	reason := "Aktivitas mencurigakan"
	user.IsBlocked = true
	user.BlockReason = &reason

	d := NewDispatcher(gdb, hub, nil)
	d.AccountModerated(ctx, user, models.ModerationEvent{
		AccountID: user.ID,
		Action:    models.ModerationBlock,
		FromState: models.BlockStateUnblocked,
		ToState:   models.BlockStateBlocked,
		Reason:    &reason,
	})

	var stored []models.Notification
	require.NoError(t, gdb.Where("user_id = ?", user.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	require.Equal(t, models.NotificationAccountBlocked, stored[0].Type)
	require.Contains(t, stored[0].Body, reason)
	require.False(t, stored[0].IsRead)

	select {
	case msg := <-client.Send:
		var push Push
		require.NoError(t, json.Unmarshal(msg, &push))
		require.Equal(t, realtime.PushAccountModerated, push.Type)
		require.Equal(t, stored[0].ID, push.Notification.ID)
		require.True(t, push.Account.IsBlocked)
		require.Equal(t, reason, *push.Account.BlockReason)
	case <-time.After(time.Second):
		t.Fatal("expected a websocket push")
	}
}

func TestBlockDropsOpenSockets(t *testing.T) {
	gdb := testutil.MustOpenTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	seeker := &models.User{ID: uuid.New(), Role: models.RoleJobSeeker, VerificationStatus: models.VerificationVerified}
	client := realtime.NewClient(seeker.ID, nil)
	hub.RegisterClient(client)
	require.Eventually(t, func() bool { return hub.Connected(seeker.ID) == 1 }, time.Second, 5*time.Millisecond)

	d := NewDispatcher(gdb, hub, nil)
	reason := "Aktivitas mencurigakan"
	seeker.IsBlocked = true
	seeker.BlockReason = &reason
	d.AccountModerated(ctx, seeker, models.ModerationEvent{
		AccountID: seeker.ID,
		Action:    models.ModerationBlock,
		FromState: models.BlockStateUnblocked,
		ToState:   models.BlockStateBlocked,
		Reason:    &reason,
	})

	require.Zero(t, hub.Connected(seeker.ID))

	msg, open := <-client.Send
	require.True(t, open)
	var push Push
	require.NoError(t, json.Unmarshal(msg, &push))
	require.Equal(t, realtime.PushAccountModerated, push.Type)
	require.True(t, push.Account.IsBlocked)
	_, open = <-client.Send
	require.False(t, open, "socket is closed after the block push")

	// later pushes are stored but reach no socket
	d.ApplicationStatusChanged(ctx, &models.Application{JobID: 1, JobSeekerID: seeker.ID, Status: models.ApplicationRejected}, "Backend Engineer")
	var count int64
	require.NoError(t, gdb.Model(&models.Notification{}).Where("user_id = ?", seeker.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestUnblockKeepsSockets(t *testing.T) {
	gdb := testutil.MustOpenTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	employer := &models.User{ID: uuid.New(), Role: models.RoleEmployer, VerificationStatus: models.VerificationPending}
	client := realtime.NewClient(employer.ID, nil)
	hub.RegisterClient(client)
	require.Eventually(t, func() bool { return hub.Connected(employer.ID) == 1 }, time.Second, 5*time.Millisecond)

	d := NewDispatcher(gdb, hub, nil)
	employer.VerificationStatus = models.VerificationVerified
	d.AccountModerated(ctx, employer, models.ModerationEvent{
		AccountID: employer.ID,
		Action:    models.ModerationVerify,
		FromState: string(models.VerificationPending),
		ToState:   string(models.VerificationVerified),
	})

	require.Equal(t, 1, hub.Connected(employer.ID))
	require.Len(t, client.Send, 1)
}

func TestApplicationNotifications(t *testing.T) {
	gdb := testutil.MustOpenTestDB(t)
	d := NewDispatcher(gdb, nil, nil)
	ctx := context.Background()

	employerID, seekerID := uuid.New(), uuid.New()
	job := &models.Job{ID: 7, EmployerID: employerID, Title: "Backend Engineer"}

	d.ApplicationCreated(ctx, employerID, job, &models.User{ID: seekerID, Name: "Budi"})
	d.ApplicationStatusChanged(ctx, &models.Application{JobID: job.ID, JobSeekerID: seekerID, Status: models.ApplicationAccepted}, job.Title)

	var forEmployer models.Notification
	require.NoError(t, gdb.First(&forEmployer, "user_id = ?", employerID).Error)
	require.Equal(t, models.NotificationApplicationCreated, forEmployer.Type)
	require.Contains(t, forEmployer.Body, "Budi")

	var forSeeker models.Notification
	require.NoError(t, gdb.First(&forSeeker, "user_id = ?", seekerID).Error)
	require.Equal(t, models.NotificationApplicationStatus, forSeeker.Type)
	require.Contains(t, forSeeker.Body, "diterima")
}

func TestModerationNotificationTypes(t *testing.T) {
	cases := map[models.ModerationAction]models.NotificationType{
		models.ModerationVerify:  models.NotificationAccountVerified,
		models.ModerationReject:  models.NotificationAccountRejected,
		models.ModerationBlock:   models.NotificationAccountBlocked,
		models.ModerationUnblock: models.NotificationAccountUnblocked,
		models.ModerationReopen:  models.NotificationAccountReopened,
	}
	for action, want := range cases {
		n := moderationNotification(uuid.New(), models.ModerationEvent{Action: action})
		require.Equal(t, want, n.Type, action)
		require.NotEmpty(t, n.Title)
	}
}
