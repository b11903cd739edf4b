package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"dinehall/internal/utils"
)

// Locker serializes table occupancy transitions across instances. A table's
// status flip happens under a short SetNX lease so a concurrent order
// creation and reservation arrival cannot interleave their read/check/write.
type Locker struct {
	Client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{Client: client}
}

const tableLockTTL = 10 * time.Second

// AcquireTable takes the lease for one table. The returned token must be
// passed back to ReleaseTable so only the holder can unlock.
func (r *Locker) AcquireTable(ctx context.Context, tableID string) (string, bool, error) {
	token := utils.NewID()
	ok, err := r.Client.SetNX(ctx, "table_lock:"+tableID, token, tableLockTTL).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseTable drops the lease if this caller still owns it. A lease that
// expired and was re-acquired by someone else is left alone.
func (r *Locker) ReleaseTable(ctx context.Context, tableID, token string) error {
	key := "table_lock:" + tableID
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // lease already expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err = r.Client.Del(ctx, key).Result()
	}
	return err
}
