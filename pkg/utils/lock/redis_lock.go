package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DistributedLock 定义分布式锁接口
type DistributedLock interface {
	// Acquire 尝试获取锁，返回持有者令牌；锁已被占用时返回 ("", false, nil)
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// Release 只有令牌匹配时才删除，避免误删他人重新获取的锁
	Release(ctx context.Context, key string, token string) error
}

var ErrNotOwner = errors.New("锁已过期或被其他实例持有")

// 比较并删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock 基于 Redis SET NX 的实现
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *RedisLock) Release(ctx context.Context, key string, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOwner
	}
	return nil
}
