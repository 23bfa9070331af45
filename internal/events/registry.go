package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const connUserKey = "conn:user"

func userConnsKey(userID string) string         { return "user:conns:" + userID }
func instanceConnsKey(instanceID string) string { return "instance:conns:" + instanceID }

// Registry tracks which live connections belong to which user across
// instances. Entries are scoped to the owning instance so a restart can
// clear what it left behind.
type Registry struct {
	rdb        *redis.Client
	instanceID string
}

// NewRegistry returns a Registry for this instance.
func NewRegistry(rdb *redis.Client, instanceID string) *Registry {
	return &Registry{rdb: rdb, instanceID: instanceID}
}

// Init removes entries left by a previous run of this instance.
func (r *Registry) Init(ctx context.Context) error {
	return r.clearInstance(ctx)
}

// Close removes every entry owned by this instance.
func (r *Registry) Close(ctx context.Context) error {
	return r.clearInstance(ctx)
}

// Add registers connID for userID.
func (r *Registry) Add(ctx context.Context, userID, connID string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, connUserKey, connID, userID)
		p.SAdd(ctx, userConnsKey(userID), connID)
		p.SAdd(ctx, instanceConnsKey(r.instanceID), connID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry add: %w", err)
	}
	return nil
}

// Remove forgets connID. Unknown ids are ignored.
func (r *Registry) Remove(ctx context.Context, connID string) error {
	userID, err := r.UserFor(ctx, connID)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, connUserKey, connID)
		if userID != "" {
			p.SRem(ctx, userConnsKey(userID), connID)
		}
		p.SRem(ctx, instanceConnsKey(r.instanceID), connID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry remove: %w", err)
	}
	return nil
}

// UserFor returns the owner of connID, "" when unknown.
func (r *Registry) UserFor(ctx context.Context, connID string) (string, error) {
	userID, err := r.rdb.HGet(ctx, connUserKey, connID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("registry lookup: %w", err)
	}
	return userID, nil
}

// IsOnline reports whether userID has at least one live connection.
func (r *Registry) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := r.rdb.SCard(ctx, userConnsKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("registry online: %w", err)
	}
	return n > 0, nil
}

func (r *Registry) clearInstance(ctx context.Context) error {
	ids, err := r.rdb.SMembers(ctx, instanceConnsKey(r.instanceID)).Result()
	if err != nil {
		return fmt.Errorf("registry scan instance: %w", err)
	}
	for _, id := range ids {
		if err := r.Remove(ctx, id); err != nil {
			return err
		}
	}
	return r.rdb.Del(ctx, instanceConnsKey(r.instanceID)).Err()
}
