package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotLocked is returned when a slot lock cannot be acquired before the
// context is done.
var ErrSlotLocked = errors.New("slot is being booked by another request")

// SlotLocker serializes the check-and-insert of a booking per slot key.
type SlotLocker interface {
	// Lock blocks until the lock for key is held or ctx is done. The
	// returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

const (
	RedisSlotLockKeyPrefix = "slot_lock:"

	lockPollInterval = 25 * time.Millisecond

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// releaseLockScript deletes the lock only if this holder still owns it, so
// an expired lease taken over by another request is never released early.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisSlotLocker holds a SET NX PX lease per slot. The lease TTL bounds how
// long a crashed holder can block the slot.
type RedisSlotLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisSlotLocker(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisSlotLocker {
	return &RedisSlotLocker{redisClient: redisClient, log: log, ttl: ttl}
}

func (l *RedisSlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := RedisSlotLockKeyPrefix + key
	token := uuid.New().String()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.redisClient.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrSlotLocked
			}
			return nil, fmt.Errorf("acquire slot lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ErrSlotLocked
		case <-ticker.C:
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseLockScript.Run(releaseCtx, l.redisClient, []string{lockKey}, token).Err(); err != nil {
			l.log.Warnf("Failed to release slot lock %s: %+v", key, err)
		}
	}, nil
}

// LocalSlotLocker is an in-process keyed mutex. It only serializes requests
// served by the same process.
type LocalSlotLocker struct {
	log   *logrus.Logger
	slots sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup. The one-slot channel
// acts as a mutex that can be abandoned on context cancellation.
type mutexWithTimestamp struct {
	sem      chan struct{}
	lastUsed atomic.Int64 // Unix timestamp
}

// NewLocalSlotLocker starts a background goroutine for mutex cleanup.
// Call Stop() during graceful shutdown.
func NewLocalSlotLocker(log *logrus.Logger) *LocalSlotLocker {
	l := &LocalSlotLocker{
		log:      log,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

func (l *LocalSlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		mt := l.getSlotMutex(key)

		select {
		case mt.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ErrSlotLocked
		}

		// The mutex may have been cleaned up while we waited on it.
		if current, ok := l.slots.Load(key); ok && current == mt {
			var once sync.Once
			return func() {
				once.Do(func() {
					mt.lastUsed.Store(time.Now().Unix())
					<-mt.sem
				})
			}, nil
		}
		<-mt.sem
	}
}

// Stop gracefully shuts down the cleanup goroutine.
// Safe to call multiple times.
func (l *LocalSlotLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
	}
}

func (l *LocalSlotLocker) getSlotMutex(key string) *mutexWithTimestamp {
	mt, _ := l.slots.LoadOrStore(key, &mutexWithTimestamp{sem: make(chan struct{}, 1)})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (l *LocalSlotLocker) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes unheld mutexes last used before cutoff.
func (l *LocalSlotLocker) cleanupStaleMutexes(cutoff time.Time) int {
	var cleaned int

	l.slots.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		// Only a mutex we can take ourselves is unused.
		select {
		case mt.sem <- struct{}{}:
			if mt.lastUsed.Load() < cutoff.Unix() {
				l.slots.Delete(key)
				cleaned++
			}
			<-mt.sem
		default:
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale slot mutexes", cleaned)
	}
	return cleaned
}
