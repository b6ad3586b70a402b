package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	profileKeyPrefix = "eventvex:profile:"
	rolesKeyPrefix   = "eventvex:roles:"
	statusField      = "status"
)

// RedisOracle reads profiles maintained by the identity registry:
// a hash eventvex:profile:<addr> with a "status" field and a set
// eventvex:roles:<addr> of role names. A missing profile is Active.
type RedisOracle struct {
	rdb redis.UniversalClient
}

func NewRedisOracle(rdb redis.UniversalClient) *RedisOracle {
	return &RedisOracle{rdb: rdb}
}

func (o *RedisOracle) HasRole(ctx context.Context, role Role, addr domain.Address) (bool, error) {
	ok, err := o.rdb.SIsMember(ctx, rolesKey(addr), string(role)).Result()
	if err != nil {
		return false, fmt.Errorf("read roles: %w", err)
	}
	return ok, nil
}

func (o *RedisOracle) CanCreateEvents(ctx context.Context, addr domain.Address) (bool, error) {
	pipe := o.rdb.Pipeline()
	statusCmd := pipe.HGet(ctx, profileKey(addr), statusField)
	rolesCmd := pipe.SMIsMember(ctx, rolesKey(addr),
		string(RoleOrganizer), string(RoleVerifiedOrganizer), string(RoleAdmin))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("read profile: %w", err)
	}

	status, err := statusOf(statusCmd)
	if err != nil {
		return false, err
	}
	flags, err := rolesCmd.Result()
	if err != nil {
		return false, fmt.Errorf("read roles: %w", err)
	}
	roles := map[Role]bool{
		RoleOrganizer:         len(flags) > 0 && flags[0],
		RoleVerifiedOrganizer: len(flags) > 1 && flags[1],
		RoleAdmin:             len(flags) > 2 && flags[2],
	}
	return canCreate(status, roles), nil
}

func (o *RedisOracle) CanPurchaseTickets(ctx context.Context, addr domain.Address) (bool, error) {
	status, err := statusOf(o.rdb.HGet(ctx, profileKey(addr), statusField))
	if err != nil {
		return false, err
	}
	return canPurchase(status), nil
}

func (o *RedisOracle) Grant(ctx context.Context, addr domain.Address, role Role) error {
	if err := o.rdb.SAdd(ctx, rolesKey(addr), string(role)).Err(); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (o *RedisOracle) Revoke(ctx context.Context, addr domain.Address, role Role) error {
	if err := o.rdb.SRem(ctx, rolesKey(addr), string(role)).Err(); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (o *RedisOracle) SetStatus(ctx context.Context, addr domain.Address, status Status) error {
	if err := o.rdb.HSet(ctx, profileKey(addr), statusField, string(status)).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func statusOf(cmd *redis.StringCmd) (Status, error) {
	raw, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return StatusActive, nil
	}
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	status, err := ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	return status, nil
}

func profileKey(addr domain.Address) string {
	return profileKeyPrefix + addr.String()
}

func rolesKey(addr domain.Address) string {
	return rolesKeyPrefix + addr.String()
}
