// Package chat runs the conversation pipeline: one inbound WhatsApp text in,
// one reply out, with the side effects (identity, quotations, notifications)
// the message calls for.
package chat

import (
	"context"
	"time"

	"ovidio_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// dedupTTL must outlive Meta's redelivery window. Deliveries are retried
// for well under a day; a key that expires after that is long forgotten.
const dedupTTL = 24 * time.Hour

const dedupKeyPrefix = "chat:seen:"

// Deduper drops redelivered webhook messages by claiming each message ID
// in redis exactly once.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewDeduper creates a message deduper.
func NewDeduper(rdb *redis.Client, log *logger.Logger) *Deduper {
	return &Deduper{rdb: rdb, ttl: dedupTTL, log: log}
}

// FirstSight reports whether this message ID has not been seen before.
// Exactly one concurrent caller gets true for a given ID. When redis is
// unreachable the message is treated as new: a duplicated reply is a
// smaller failure than a dropped customer message.
func (d *Deduper) FirstSight(ctx context.Context, messageID string) bool {
	claimed, err := d.rdb.SetNX(ctx, dedupKeyPrefix+messageID, 1, d.ttl).Result()
	if err != nil {
		d.log.RemoteCallFailed("redis", "dedup_setnx", err)
		return true
	}
	return claimed
}
