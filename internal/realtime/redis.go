package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pintukerja/pintukerja_be/internal/logger"
)

const channelPrefix = "notifications:"

// PushAccountModerated is the push type carrying an account's new
// moderation state.
const PushAccountModerated = "account_moderated"

func NewRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	logger.WithModule("realtime").Info("redis client created", zap.String("addr", addr))
	return rdb
}

// Channel is the pub/sub channel carrying pushes for one user.
func Channel(userID uuid.UUID) string {
	return channelPrefix + userID.String()
}

// UserFromChannel parses the user id out of a notifications channel name.
func UserFromChannel(channel string) (uuid.UUID, bool) {
	if !strings.HasPrefix(channel, channelPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(channel, channelPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Subscribe forwards every notifications:* message to local websocket
// clients. Each API instance runs one subscriber, so a push published by any
// instance reaches the user wherever the socket is held. It returns when ctx
// is done.
func Subscribe(ctx context.Context, rdb *redis.Client, hub *Hub) error {
	log := logger.WithModule("realtime")

	sub := rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Info("subscribed to notification channels")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, ok := UserFromChannel(msg.Channel)
			if !ok {
				log.Warn("ignoring message on unexpected channel", zap.String("channel", msg.Channel))
				continue
			}
			payload := []byte(msg.Payload)
			hub.SendRaw(userID, payload)
			if endsSession(payload) {
				hub.DisconnectUser(userID)
			}
		}
	}
}

// endsSession reports whether payload tells a now blocked account about its
// new state.
func endsSession(payload []byte) bool {
	var p struct {
		Type    string `json:"type"`
		Account *struct {
			IsBlocked bool `json:"is_blocked"`
		} `json:"account"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return false
	}
	return p.Type == PushAccountModerated && p.Account != nil && p.Account.IsBlocked
}
