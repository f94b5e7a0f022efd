package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const RedisDoctorKeyPrefix = "doctor:"

// DoctorCache is a read-through cache for single doctor lookups. Writers
// must call Invalidate after changing or deleting a doctor.
type DoctorCache interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

type redisDoctorCache struct {
	redisClient *redis.Client
	doctorRepo  repository.DoctorRepository
	log         *logrus.Logger
	ttl         time.Duration
	group       singleflight.Group
}

func NewRedisDoctorCache(redisClient *redis.Client, doctorRepo repository.DoctorRepository, log *logrus.Logger, ttl time.Duration) DoctorCache {
	return &redisDoctorCache{
		redisClient: redisClient,
		doctorRepo:  doctorRepo,
		log:         log,
		ttl:         ttl,
	}
}

// fillDoctorScript writes the cache entry only if no invalidation happened
// since the version was read.
var fillDoctorScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2]) or '0'
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

func doctorVersionKey(key string) string {
	return key + ":version"
}

// Get returns nil, nil when the doctor does not exist. Redis failures fall
// back to the repository.
func (c *redisDoctorCache) Get(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	key := RedisDoctorKeyPrefix + id.String()

	cached, err := c.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doctor entity.Doctor
		if jsonErr := json.Unmarshal(cached, &doctor); jsonErr == nil {
			return &doctor, nil
		}
		c.log.Warnf("Discarding corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnf("Failed to read doctor cache %s: %+v", key, err)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// The version must be read before the row so a concurrent
		// Invalidate turns the fill below into a no-op.
		version, versionErr := c.redisClient.Get(ctx, doctorVersionKey(key)).Result()
		if errors.Is(versionErr, redis.Nil) {
			version, versionErr = "0", nil
		}

		doctor, err := c.doctorRepo.FindByID(ctx, id)
		if err != nil || doctor == nil {
			return doctor, err
		}
		if versionErr != nil {
			c.log.Warnf("Failed to read doctor cache version %s: %+v", key, versionErr)
			return doctor, nil
		}
		if payload, err := json.Marshal(doctor); err == nil {
			keys := []string{key, doctorVersionKey(key)}
			if err := fillDoctorScript.Run(ctx, c.redisClient, keys, version, payload, c.ttl.Milliseconds()).Err(); err != nil {
				c.log.Warnf("Failed to write doctor cache %s: %+v", key, err)
			}
		}
		return doctor, nil
	})
	if err != nil {
		return nil, err
	}
	doctor, _ := v.(*entity.Doctor)
	return doctor, nil
}

// Invalidate bumps the entry version before deleting it, so fills that read
// the row before the change can no longer write it back.
func (c *redisDoctorCache) Invalidate(ctx context.Context, id uuid.UUID) {
	key := RedisDoctorKeyPrefix + id.String()
	if err := c.redisClient.Incr(ctx, doctorVersionKey(key)).Err(); err != nil {
		c.log.Warnf("Failed to bump doctor cache version %s: %+v", id, err)
	}
	if err := c.redisClient.Del(ctx, key).Err(); err != nil {
		c.log.Warnf("Failed to invalidate doctor cache %s: %+v", id, err)
	}
}

// passthroughDoctorCache reads straight from the repository. It is used when
// Redis is disabled.
type passthroughDoctorCache struct {
	doctorRepo repository.DoctorRepository
}

func NewPassthroughDoctorCache(doctorRepo repository.DoctorRepository) DoctorCache {
	return &passthroughDoctorCache{doctorRepo: doctorRepo}
}

func (c *passthroughDoctorCache) Get(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	return c.doctorRepo.FindByID(ctx, id)
}

func (c *passthroughDoctorCache) Invalidate(ctx context.Context, id uuid.UUID) {}
