package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionTTL = 30 * 24 * time.Hour

// RedisStore persists sessions as JSON documents in Redis so dialogue state
// survives process restarts. Per-phone serialization is still enforced with
// local mutexes: the engine runs turns for one phone on one instance.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("odontosorriso.internal.session")
	}
	return &RedisStore{
		redis:  client,
		tracer: tracer,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// WithClock overrides the store clock, for tests.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func sessionKey(phone string) string {
	return fmt.Sprintf("session:%s", phone)
}

const sessionIndexKey = "sessions:updated"

func (s *RedisStore) phoneLock(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[phone]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[phone] = lock
	}
	return lock
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, phone string, fn func(*Session) error) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.update")
	defer span.End()

	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		sess = New(phone, s.now().UTC())
	} else if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sess, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, phone string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()
	return s.load(ctx, phone)
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.list")
	defer span.End()

	phones, err := s.redis.ZRevRange(ctx, sessionIndexKey, 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: list index: %w", err)
	}

	out := make([]*Session, 0, len(phones))
	for _, phone := range phones {
		sess, err := s.load(ctx, phone)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *RedisStore) load(ctx context.Context, phone string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(phone)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", phone, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", phone, err)
	}
	return &sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", sess.Phone, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.Phone), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("session: persist %s: %w", sess.Phone, err)
	}
	score := float64(sess.UpdatedAt.UnixMilli())
	if err := s.redis.ZAdd(ctx, sessionIndexKey, redis.Z{Score: score, Member: sess.Phone}).Err(); err != nil {
		return fmt.Errorf("session: index %s: %w", sess.Phone, err)
	}
	return nil
}
