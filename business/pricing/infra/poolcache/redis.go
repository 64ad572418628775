package poolcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

var _ app.PoolCache = (*Redis)(nil)

// RedisConfig holds connection parameters.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// envelope is the stored value: the listing plus when it was fetched.
type envelope struct {
	StoredAt time.Time    `json:"storedAt"`
	Pools    []poolRecord `json:"pools"`
}

// Redis shares the listing between scanner processes.
//
// Key schema:
//
//	raydium:pools - JSON envelope, expiring after ttl+staleRetention
type Redis struct {
	rdb            *redis.Client
	ttl            time.Duration
	staleRetention time.Duration
	now            func() time.Time
}

// NewRedis connects and pings.
func NewRedis(ctx context.Context, cfg RedisConfig, ttl, staleRetention time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Redis{rdb: rdb, ttl: ttl, staleRetention: staleRetention, now: time.Now}, nil
}

func (r *Redis) Load(ctx context.Context) ([]domain.Pool, time.Time, bool, error) {
	data, err := r.rdb.Get(ctx, listingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, false, apperror.New(apperror.CodeCacheMiss, apperror.WithContext(listingKey))
		}
		return nil, time.Time{}, false, fmt.Errorf("redis: get %s: %w", listingKey, err)
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	fresh := r.now().Sub(env.StoredAt) < r.ttl
	return fromRecords(env.Pools), env.StoredAt, fresh, nil
}

func (r *Redis) Store(ctx context.Context, pools []domain.Pool) error {
	data, err := encodeEnvelope(r.now(), pools)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, listingKey, data, r.ttl+r.staleRetention).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", listingKey, err)
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func encodeEnvelope(at time.Time, pools []domain.Pool) ([]byte, error) {
	data, err := json.Marshal(envelope{StoredAt: at.UTC(), Pools: toRecords(pools)})
	if err != nil {
		return nil, fmt.Errorf("redis: marshal pools: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("redis: unmarshal pools: %w", err)
	}
	return env, nil
}
